package authprogram

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
)

const (
	SecretEnvVar = "TASKBOX_JWT_SECRET"

	MinSecretLen = 32
)

type (
	Secret []byte
)

// SecretFromEnv decodes the base64 signing secret held by varname and
// clears the variable so child processes never inherit it.
func SecretFromEnv(varname string, getfn func(string) string, setfn func(string, string) error) (Secret, error) {
	if getfn == nil {
		getfn = os.Getenv
	}
	if setfn == nil {
		setfn = os.Setenv
	}
	val := getfn(varname)
	setfn(varname, "")
	if val == "" {
		return nil, fmt.Errorf("authprogram: environment variable %v is empty", varname)
	}
	secret, err := base64.StdEncoding.DecodeString(val)
	if err != nil {
		return nil, fmt.Errorf("authprogram: cannot decode %v as base64, cause %v", varname, err)
	} else if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("authprogram: secret too short got %v expecting at least %v bytes", len(secret), MinSecretLen)
	}
	return Secret(secret), nil
}

// NewSecret returns a random secret encoded the way SecretFromEnv expects.
func NewSecret() (string, error) {
	var buf [MinSecretLen]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf[:]), nil
}

func (s Secret) Zero() {
	for i := range s {
		s[i] = 0
	}
}
