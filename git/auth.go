package git

import (
	"errors"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	platformerrors "github.com/light-tech/MiniGit/errors"
)

// BasicAuth converts a username-password credential into the HTTP basic
// authentication the transports understand. It returns nil for any other
// kind of credential.
func BasicAuth(cred Credential) transport.AuthMethod {
	if cred == nil || !cred.IsUsernamePasswordMethod() {
		return nil
	}
	return &http.BasicAuth{
		Username: cred.UserName(),
		Password: cred.Password(),
	}
}

// needsCredential reports whether err means the remote wants (other)
// credentials.
func needsCredential(err error) bool {
	return errors.Is(err, transport.ErrAuthenticationRequired) ||
		errors.Is(err, transport.ErrAuthorizationFailed)
}

// authenticate runs attempt with auth, which may be nil for anonymous
// access. Whenever the remote asks for credentials the reporter's
// GetCredential is consulted and attempt runs again with what it returns,
// up to the repository's credential attempt limit. A declined request calls
// MustSupplyCredential and ends the loop with an authentication error.
//
// The auth that succeeded is returned so later steps of the same
// operation can reuse it.
func (op *operation) authenticate(reporter *remoteReporter, auth transport.AuthMethod,
	attempt func(auth transport.AuthMethod) error,
) (transport.AuthMethod, error) {
	err := attempt(auth)
	for tries := 0; needsCredential(err); tries++ {
		if tries >= op.repo.credentialAttempts {
			return nil, platformerrors.Wrapf(err, platformerrors.CodeUnauthorized,
				"authentication failed after %d attempt(s)", tries)
		}

		cred := reporter.progress.GetCredential()
		if cred == nil {
			reporter.progress.MustSupplyCredential()
			return nil, platformerrors.Wrap(err, platformerrors.CodeUnauthorized,
				"authentication required but no credential was supplied")
		}

		auth = BasicAuth(cred)
		if auth == nil {
			return nil, platformerrors.New(platformerrors.CodeUnauthorized,
				"only username and password credentials are supported")
		}

		op.logger.Debug("retrying with credential", "attempt", tries+1)
		err = attempt(auth)
	}
	if err != nil {
		return nil, err
	}
	return auth, nil
}
