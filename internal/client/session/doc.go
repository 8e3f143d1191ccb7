// Package session holds the client's session context: the cached
// anti-forgery token and the identity of the logged-in user.
//
// A Store is constructed once by the composition root and shared by the
// token acquirer, the request pipeline, the access gate and the auth
// service. The token lives only in memory. The identity is mirrored in
// memory and written through to an IdentityRepository so it survives
// restarts.
package session
