package testutil

import (
	"net/http"

	id "engageflow/pkg/domain"
	"engageflow/pkg/requestcontext"
)

// WithUser marks req as authenticated by userID, as the auth middleware would.
func WithUser(req *http.Request, userID id.UserID) *http.Request {
	return req.WithContext(requestcontext.WithUserID(req.Context(), userID))
}

// WithBearer sets the Authorization header to a bearer token.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}
