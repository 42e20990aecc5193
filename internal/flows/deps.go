package flows

// Deps groups flow dependency sets. The root SessionStore builds the static parts
// once; per-call state such as the current expiry is filled in by each operation.
type Deps struct {
	Token    TokenDeps
	SignIn   SignInDeps
	Teardown TeardownDeps
	Restore  RestoreDeps
	Validity ValidityDeps
}
