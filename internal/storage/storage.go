// Package storage keeps uploaded video assets encrypted at rest. Files are
// written through a temp file and renamed into place so a crashed upload
// never leaves a partial asset behind.
package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// chunkSize is the plaintext block sealed per GCM invocation.
const chunkSize = 64 * 1024

// Store encrypts assets into a single directory with a 32-byte AES-256 key.
type Store struct {
	dir string
	key []byte
}

func New(dir string, key []byte) (*Store, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("invalid key length: got %d bytes, want 32 bytes", len(key))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &Store{dir: dir, key: key}, nil
}

func (s *Store) path(fileName string) string {
	return filepath.Join(s.dir, fileName+".enc")
}

// Save encrypts src and stores it under fileName. Nothing is visible at the
// final path until the whole asset has been written.
func (s *Store) Save(fileName string, src io.Reader) error {
	gcm, err := s.newGCM()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	defer tmp.Close()

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to create nonce: %w", err)
	}
	if _, err := tmp.Write(nonce); err != nil {
		return fmt.Errorf("failed to write nonce: %w", err)
	}

	// Fixed-size plaintext chunks keep the ciphertext chunk boundaries
	// recoverable on read.
	buf := make([]byte, chunkSize)
	for {
		n, err := io.ReadFull(src, buf)
		if n > 0 {
			ciphertext := gcm.Seal(nil, nonce, buf[:n], nil)
			if _, werr := tmp.Write(ciphertext); werr != nil {
				return fmt.Errorf("failed to write encrypted data: %w", werr)
			}
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read upload: %w", err)
		}
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path(fileName)); err != nil {
		return fmt.Errorf("failed to move encrypted file to final location: %w", err)
	}
	return nil
}

// DecryptTo writes the decrypted asset to dstPath.
func (s *Store) DecryptTo(fileName, dstPath string) error {
	gcm, err := s.newGCM()
	if err != nil {
		return err
	}

	in, err := os.Open(s.path(fileName))
	if err != nil {
		return fmt.Errorf("failed to open encrypted file: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dstPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(in, nonce); err != nil {
		return fmt.Errorf("failed to read nonce: %w", err)
	}

	buf := make([]byte, chunkSize+gcm.Overhead())
	for {
		n, err := io.ReadFull(in, buf)
		if n > 0 {
			plaintext, perr := gcm.Open(nil, nonce, buf[:n], nil)
			if perr != nil {
				return fmt.Errorf("failed to decrypt data: %w", perr)
			}
			if _, werr := out.Write(plaintext); werr != nil {
				return fmt.Errorf("failed to write decrypted data: %w", werr)
			}
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read encrypted file: %w", err)
		}
	}
	return nil
}

// Remove deletes the stored asset. Removing an absent asset is not an error.
func (s *Store) Remove(fileName string) error {
	if err := os.Remove(s.path(fileName)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *Store) newGCM() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}
