package git

// Factory allocates the domain objects a Repository hands out. The
// repository populates and indexes whatever the factory returns, so a
// custom factory can attach its own ReferenceLinker to every commit while
// the repository still tracks each object it produced.
type Factory interface {
	MakeCommit() *Commit
	MakeReference() *Reference
	MakeRemote() *Remote
}

// DefaultFactory allocates plain objects.
type DefaultFactory struct{}

func (DefaultFactory) MakeCommit() *Commit       { return NewCommit(nil) }
func (DefaultFactory) MakeReference() *Reference { return &Reference{} }
func (DefaultFactory) MakeRemote() *Remote       { return &Remote{} }

func (r *Repository) makeCommit() *Commit {
	if c := r.factory.MakeCommit(); c != nil {
		return c
	}
	return NewCommit(nil)
}

func (r *Repository) makeReference() *Reference {
	if ref := r.factory.MakeReference(); ref != nil {
		return ref
	}
	return &Reference{}
}

func (r *Repository) makeRemote() *Remote {
	if remote := r.factory.MakeRemote(); remote != nil {
		return remote
	}
	return &Remote{}
}
