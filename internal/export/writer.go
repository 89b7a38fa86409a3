package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"NaturasoftSync/pkg/logging"

	"github.com/pkg/errors"
)

// EnsureExportDir creates the ERP export directory if needed and returns
// its path.
func EnsureExportDir(dir string) (string, error) {
	err := os.MkdirAll(dir, 0770)
	if err != nil {
		return "", errors.Wrapf(err, "failed os.MkdirAll(%s)", dir)
	}
	return dir, nil
}

// WriteOrderFile persists one order document as order-<number>.xml and
// returns the produced path. Callers mark the order exported only when
// this succeeds, so a failed write leaves the order pending for retry.
func WriteOrderFile(dir, orderNumber, xmlDoc string) (string, error) {

	logger := logging.GetLogger()

	dir, err := EnsureExportDir(dir)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("order-%s.xml", orderNumber))
	err = os.WriteFile(path, []byte(xmlDoc), 0640)
	if err != nil {
		return "", errors.Wrapf(err, "failed os.WriteFile(%s)", path)
	}

	logger.Infof("WriteOrderFile: %s", path)
	return path, nil
}

// PathToURL maps a produced file path to its public URL. Empty when no
// base URL is configured.
func PathToURL(baseURL, path string) string {
	if baseURL == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + "/" + filepath.Base(path)
}
