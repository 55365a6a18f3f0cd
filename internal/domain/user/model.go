package user

// Principal identifies the caller of an HTTP operation. Authentication
// happens outside this service; guests carry a client-held opaque id and
// participate in matches on equal footing with registered users.
type Principal struct {
	UserID string
	Guest  bool
}
