package utils

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/twmb/murmur3"
)

func HashString(s string) uint64 {
	hash := murmur3.New64()
	_, err := hash.Write([]byte(s))
	if err != nil {
		panic(err)
	}
	return hash.Sum64()
}

// HashTokens hashes an ordered token list. Tokens are separated by a zero byte so that
// ["ab", "c"] and ["a", "bc"] differ.
func HashTokens(tokens []string) uint64 {
	hash := murmur3.New64()
	for _, token := range tokens {
		_, _ = hash.Write([]byte(token))
		_, _ = hash.Write([]byte{0})
	}
	return hash.Sum64()
}

// ReadList reads one entry per line, skipping blank lines and lines starting with '#'.
func ReadList(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ScanList(file)
}

func ScanList(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)

	var result []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		result = append(result, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
