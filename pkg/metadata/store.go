package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"flickrdl/pkg/flickr"
)

const infoSuffix = "_info.json"

// StoredRecord is a record read back from the data directory
type StoredRecord struct {
	Key    string
	Record *PhotoRecord
}

// LoadRecords reads every *_info.json in dataDir, together with the matching
// sizes file when present. Unreadable files are returned as errors alongside
// the records that did load.
func LoadRecords(dataDir string) ([]StoredRecord, []error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, []error{fmt.Errorf("failed to read data directory: %w", err)}
	}

	var (
		records []StoredRecord
		errs    []error
	)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, infoSuffix) {
			continue
		}
		key := strings.TrimSuffix(name, infoSuffix)

		var info flickr.PhotoInfo
		if err := readJSON(filepath.Join(dataDir, name), &info); err != nil {
			errs = append(errs, err)
			continue
		}

		var sizes *flickr.Sizes
		sizesPath := filepath.Join(dataDir, key+"_"+string(PartSizes)+".json")
		if _, err := os.Stat(sizesPath); err == nil {
			sizes = &flickr.Sizes{}
			if err := readJSON(sizesPath, sizes); err != nil {
				errs = append(errs, err)
				sizes = nil
			}
		}

		records = append(records, StoredRecord{Key: key, Record: NewPhotoRecord(&info, sizes)})
	}

	return records, errs
}

func readJSON(path string, target interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
