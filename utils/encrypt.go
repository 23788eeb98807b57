package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"io"

	"CareCompanion/config"
)

// 手机号 AES-256-GCM 加密，密文格式为 nonce || ciphertext

var errInvalidCipherText = errors.New("invalid ciphertext payload")

func newGCM() (cipher.AEAD, error) {
	block, err := aes.NewCipher([]byte(config.Cfg.EncryptionKey))
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func EncryptPhone(plain string) ([]byte, error) {
	gcm, err := newGCM()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, []byte(plain), nil), nil
}

func DecryptPhone(raw []byte) (string, error) {
	gcm, err := newGCM()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(raw) < nonceSize {
		return "", errInvalidCipherText
	}

	plain, err := gcm.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
