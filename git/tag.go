package git

// CreateLightweightTag creates the tag name pointing directly at commit.
// It fails with an already-exists error when the tag exists.
//
// Returns the new reference, or nil after reporting to errs.
//
// Example:
//
//	tag := repo.CreateLightweightTag("v1.0.0", commit, &errs)
func (r *Repository) CreateLightweightTag(name string, commit *Commit, errs ErrorReceiver) *Reference {
	op := r.begin("create-tag", errs, "ref", name)
	refsChanged := false
	defer func() { op.finish(refsChanged) }()

	if !op.ready() || !op.ownsCommit(commit) {
		return nil
	}

	// A nil options value makes the engine write a lightweight tag.
	ref, err := r.repo.CreateTag(name, commit.id.hash(), nil)
	if err != nil {
		op.fail(wrapError(err, "failed to create tag"), ErrorClassReference)
		return nil
	}
	refsChanged = true

	return r.referenceFor(ref)
}
