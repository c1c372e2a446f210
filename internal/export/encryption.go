package export

import (
	"bufio"
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

// MagicHeader prefixes encrypted history files.
const MagicHeader = "LORENC01"

const (
	defaultArgon2Time    = 1
	defaultArgon2Memory  = 64 * 1024 // KiB
	defaultArgon2Threads = 4
	keyLength            = 32 // AES-256

	saltLength = 32
	nonceSize  = 12
	tagSize    = 16
)

// EncryptionConfig holds the password and Argon2id cost parameters.
type EncryptionConfig struct {
	Password string

	Argon2Time    uint32
	Argon2Memory  uint32 // KiB
	Argon2Threads uint8
}

// DefaultEncryptionConfig returns the RFC 9106 second recommended parameter set.
func DefaultEncryptionConfig(password string) *EncryptionConfig {
	return &EncryptionConfig{
		Password:      password,
		Argon2Time:    defaultArgon2Time,
		Argon2Memory:  defaultArgon2Memory,
		Argon2Threads: defaultArgon2Threads,
	}
}

func (c *EncryptionConfig) gcm(salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey([]byte(c.Password), salt, c.Argon2Time, c.Argon2Memory, c.Argon2Threads, keyLength)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// EncryptData encrypts with AES-256-GCM under an Argon2id key.
// Output layout: salt || nonce || ciphertext+tag.
func EncryptData(plaintext []byte, config *EncryptionConfig) ([]byte, error) {
	if config == nil || config.Password == "" {
		return nil, fmt.Errorf("encryption config with password required")
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	gcm, err := config.gcm(salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	out := make([]byte, 0, len(salt)+len(nonce)+len(plaintext)+gcm.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, plaintext, nil), nil
}

// DecryptData reverses EncryptData.
func DecryptData(encrypted []byte, config *EncryptionConfig) ([]byte, error) {
	if config == nil || config.Password == "" {
		return nil, fmt.Errorf("encryption config with password required")
	}
	if len(encrypted) < saltLength+nonceSize+tagSize {
		return nil, fmt.Errorf("encrypted data too short")
	}

	salt := encrypted[:saltLength]
	gcm, err := config.gcm(salt)
	if err != nil {
		return nil, err
	}

	rest := encrypted[saltLength:]
	nonce, ciphertext := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed (wrong password or corrupted data): %w", err)
	}
	return plaintext, nil
}

// WriteEncryptedHistory writes the magic header followed by the encrypted
// compact JSON history.
func WriteEncryptedHistory(w io.Writer, history *History, config *EncryptionConfig) error {
	var buf bytes.Buffer
	if err := WriteHistory(&buf, history, false); err != nil {
		return err
	}

	encrypted, err := EncryptData(buf.Bytes(), config)
	if err != nil {
		return fmt.Errorf("encryption failed: %w", err)
	}

	if _, err := io.WriteString(w, MagicHeader); err != nil {
		return fmt.Errorf("failed to write magic header: %w", err)
	}
	if _, err := w.Write(encrypted); err != nil {
		return fmt.Errorf("failed to write encrypted data: %w", err)
	}
	return nil
}

// ReadAnyHistory reads a plain or encrypted history. The password is only
// needed when the input starts with MagicHeader.
func ReadAnyHistory(r io.Reader, password string) (*History, error) {
	br := bufio.NewReader(r)

	header, err := br.Peek(len(MagicHeader))
	if err != nil || string(header) != MagicHeader {
		return ReadHistory(br)
	}

	data, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("failed to read encrypted history: %w", err)
	}

	plaintext, err := DecryptData(data[len(MagicHeader):], DefaultEncryptionConfig(password))
	if err != nil {
		return nil, err
	}
	return ReadHistory(bytes.NewReader(plaintext))
}

// IsEncrypted reports whether data starts with MagicHeader.
func IsEncrypted(data []byte) bool {
	return bytes.HasPrefix(data, []byte(MagicHeader))
}
