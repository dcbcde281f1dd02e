package port

// PasswordHasher hashes and verifies secrets. Verification is constant-time
// with respect to the secret; failures of the underlying primitive are
// returned as errors, not as a mismatch.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password string, encoded string) (bool, error)
}
