// Package identity talks to the hosted identity service (a Supabase GoTrue
// compatible REST API) for account sign-up, sign-in, token refresh, sign-out
// and password reset.
//
// The vault core never calls this package; it is used by the command line
// front end only. Accounts here are unrelated to the local master password.
//
// # Wire format
//
// Every call is POST {base}/auth/v1{endpoint} with a JSON body, the anon key
// in the apikey header and, for sign-out, the access token as a bearer
// token. Replies must be JSON objects. A status >= 400 becomes a
// *RemoteServiceError whose message comes from error_description, then msg,
// then a generic fallback.
//
// # Sessions
//
// SignIn and RefreshSession compute Session.ExpiresAt from expires_in. When
// the reply has no expires_in, the exp claim of the access token is used;
// the token is parsed without signature verification, since only the server
// can verify it and the value is advisory.
package identity
