/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package kv

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/wledradar/pkg/models"
)

func writeSelfSigned(t *testing.T, dir string) (certFile, keyFile string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "nats.local"},
		DNSNames:              []string{"nats.local"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	certFile = filepath.Join(dir, "client.pem")
	keyFile = filepath.Join(dir, "client-key.pem")

	require.NoError(t, os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))

	return certFile, keyFile
}

func TestTLSConfig(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeSelfSigned(t, dir)

	badCA := filepath.Join(dir, "bad-ca.pem")
	require.NoError(t, os.WriteFile(badCA, []byte("not a certificate"), 0o600))

	t.Run("nil keeps plain text", func(t *testing.T) {
		tc, err := TLSConfig(nil)
		require.NoError(t, err)
		assert.Nil(t, tc)
	})

	t.Run("mutual tls", func(t *testing.T) {
		tc, err := TLSConfig(&models.NATSTLSConfig{
			CertFile:   certFile,
			KeyFile:    keyFile,
			CAFile:     certFile,
			ServerName: "nats.local",
		})
		require.NoError(t, err)
		assert.Len(t, tc.Certificates, 1)
		assert.NotNil(t, tc.RootCAs)
		assert.Equal(t, "nats.local", tc.ServerName)
	})

	t.Run("ca only", func(t *testing.T) {
		tc, err := TLSConfig(&models.NATSTLSConfig{CAFile: certFile})
		require.NoError(t, err)
		assert.Empty(t, tc.Certificates)
		assert.NotNil(t, tc.RootCAs)
	})

	t.Run("unparseable ca", func(t *testing.T) {
		_, err := TLSConfig(&models.NATSTLSConfig{CAFile: badCA})
		require.ErrorIs(t, err, ErrCAParsingFailed)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := TLSConfig(&models.NATSTLSConfig{CertFile: certFile, KeyFile: filepath.Join(dir, "missing.pem")})
		require.Error(t, err)
	})
}

func TestNewNatsStoreRequiresURLAndBucket(t *testing.T) {
	_, err := NewNatsStore(t.Context(), "", "b", nil, nil)
	require.ErrorIs(t, err, errEmptyURL)

	_, err = NewNatsStore(t.Context(), "nats://127.0.0.1:4222", "", nil, nil)
	require.ErrorIs(t, err, errEmptyBucket)
}
