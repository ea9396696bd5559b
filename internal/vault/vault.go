package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// KeySize AES-256 密钥长度
const KeySize = 32

const (
	nonceSize = 12
	tagSize   = 16
	separator = ":"
)

var (
	ErrKeyInvalid       = errors.New("vault key invalid")
	ErrDecryptionFailed = errors.New("credential decryption failed")
)

// Vault 凭证加解密（AES-256-GCM，context 作为附加认证数据）
type Vault struct {
	aead cipher.AEAD
	rand io.Reader
}

// New 使用 32 字节密钥创建 Vault
func New(key []byte) (*Vault, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrKeyInvalid, KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyInvalid, err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyInvalid, err)
	}
	return &Vault{aead: aead, rand: rand.Reader}, nil
}

// NewFromHex 从十六进制配置创建 Vault
func NewFromHex(encoded string) (*Vault, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, fmt.Errorf("%w: key is empty", ErrKeyInvalid)
	}
	key, err := hex.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: key is not hex", ErrKeyInvalid)
	}
	return New(key)
}

// CredentialContext 生成凭证的绑定上下文
func CredentialContext(organizerID uint, providerID string) string {
	return fmt.Sprintf("payment-credentials-%d-%s", organizerID, strings.TrimSpace(providerID))
}

// Encrypt 加密并返回 nonce:tag:ciphertext（十六进制）
func (v *Vault) Encrypt(plaintext []byte, context string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(v.rand, nonce); err != nil {
		return "", fmt.Errorf("generate nonce failed: %w", err)
	}
	sealed := v.aead.Seal(nil, nonce, plaintext, []byte(context))
	ciphertext := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]
	return strings.Join([]string{
		hex.EncodeToString(nonce),
		hex.EncodeToString(tag),
		hex.EncodeToString(ciphertext),
	}, separator), nil
}

// Decrypt 解密 nonce:tag:ciphertext，context 不一致时失败
func (v *Vault) Decrypt(envelope string, context string) ([]byte, error) {
	parts := strings.Split(strings.TrimSpace(envelope), separator)
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: malformed envelope", ErrDecryptionFailed)
	}
	nonce, err := hex.DecodeString(parts[0])
	if err != nil || len(nonce) != nonceSize {
		return nil, fmt.Errorf("%w: invalid nonce", ErrDecryptionFailed)
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil || len(tag) != tagSize {
		return nil, fmt.Errorf("%w: invalid tag", ErrDecryptionFailed)
	}
	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ciphertext", ErrDecryptionFailed)
	}
	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)
	plaintext, err := v.aead.Open(nil, nonce, sealed, []byte(context))
	if err != nil {
		return nil, fmt.Errorf("%w: authentication failed", ErrDecryptionFailed)
	}
	return plaintext, nil
}

// EncryptJSON 序列化后加密
func (v *Vault) EncryptJSON(value interface{}, context string) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("marshal credentials failed: %w", err)
	}
	return v.Encrypt(data, context)
}

// DecryptJSON 解密后反序列化到 dest
func (v *Vault) DecryptJSON(envelope string, context string, dest interface{}) error {
	plaintext, err := v.Decrypt(envelope, context)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(plaintext, dest); err != nil {
		return fmt.Errorf("%w: payload is not json", ErrDecryptionFailed)
	}
	return nil
}
