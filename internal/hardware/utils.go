package hardware

import (
	"fmt"
	"os"
	"strings"
)

func readSysfsString(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed reading %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}
