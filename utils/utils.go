package utils

import (
	"crypto/md5"
	"fmt"
	"math/rand"
	"os"

	Logger "github.com/stonksfeed/tickerscan/utils/log"
)

const letters = "abcdefghijklmnopqrstuvwxyz"

// ContainsString returns true iff the provided string slice hay contains string
// needle.
func ContainsString(hay []string, needle string) bool {
	for _, str := range hay {
		if str == needle {
			return true
		}
	}
	return false
}

// RandomAlphabetString generates a lower case alphabet-only random string of
// the given length.
func RandomAlphabetString(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}

func TextToMd5Hash(text string) (string, error) {
	h := md5.New()
	if _, err := h.Write([]byte(text)); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// ImmediatePrintError logs the error at the place it happens and returns the
// same error, so that call sites can both record and propagate.
func ImmediatePrintError(err error) error {
	if err != nil {
		Logger.Log.Error(err)
	}
	return err
}

func IsProdEnv() bool {
	return os.Getenv("TICKERSCAN_ENV") == "prod"
}
