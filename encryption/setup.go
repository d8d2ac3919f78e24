package encryption

import (
	"context"
	"fmt"
	"os"
)

// loadPrimaryKeyPair load the primary RSA key pair which wraps the data keys
func (e *cryptoEngine) loadPrimaryKeyPair(
	ctx context.Context, certFilePath string, keyFilePath string,
) error {
	certPEM, err := os.ReadFile(certFilePath)
	if err != nil {
		return fmt.Errorf("failed to read %s [%w]", certFilePath, err)
	}
	keyPEM, err := os.ReadFile(keyFilePath)
	if err != nil {
		return fmt.Errorf("failed to read %s [%w]", keyFilePath, err)
	}

	cert, err := e.crypto.ParseCertificateFromPEM(ctx, string(certPEM))
	if err != nil {
		return fmt.Errorf("failed to parse x509 certificate in %s [%w]", certFilePath, err)
	}

	privKey, err := e.crypto.ParseRSAPrivateKeyFromPEM(ctx, string(keyPEM))
	if err != nil {
		return fmt.Errorf("failed to parse RSA private key in %s [%w]", keyFilePath, err)
	}

	pubKey, err := e.crypto.ReadRSAPublicKeyFromCert(ctx, cert)
	if err != nil {
		return fmt.Errorf("certificate %s carries no usable RSA public key [%w]", certFilePath, err)
	}

	if pubKey.N.Cmp(privKey.N) != 0 || pubKey.E != privKey.E {
		return fmt.Errorf("certificate %s does not match private key %s", certFilePath, keyFilePath)
	}

	e.primaryKey = privKey
	e.primaryPubKey = pubKey
	return nil
}
