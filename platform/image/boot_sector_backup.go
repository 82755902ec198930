package image

import (
	"encoding/hex"
	"encoding/json"

	bosherr "github.com/cloudfoundry/bosh-utils/errors"
	boshsys "github.com/cloudfoundry/bosh-utils/system"
)

type BootSectorBackup struct {
	ImagePath string `json:"image_path"`
	FileSize  uint64 `json:"file_size"`
	BootCode  string `json:"boot_code"`
}

type bootSectorBackupWriter struct {
	fs   boshsys.FileSystem
	path string
}

// NewBootSectorBackupWriter returns a writer keeping snapshots as JSON at path.
func NewBootSectorBackupWriter(fs boshsys.FileSystem, path string) *bootSectorBackupWriter {
	return &bootSectorBackupWriter{fs: fs, path: path}
}

func (w *bootSectorBackupWriter) Save(imagePath string, snapshot BootSectorSnapshot) error {
	backup := BootSectorBackup{
		ImagePath: imagePath,
		FileSize:  snapshot.FileSize,
		BootCode:  hex.EncodeToString(snapshot.BootCode[:]),
	}

	backupJSON, err := json.Marshal(backup)
	if err != nil {
		return bosherr.WrapError(err, "Marshalling boot sector backup")
	}

	err = w.fs.WriteFile(w.path, backupJSON)
	if err != nil {
		return bosherr.WrapErrorf(err, "Writing boot sector backup to `%s'", w.path)
	}

	return nil
}

func LoadBootSectorBackup(fs boshsys.FileSystem, path string) (BootSectorBackup, BootSectorSnapshot, error) {
	var backup BootSectorBackup
	var snapshot BootSectorSnapshot

	backupJSON, err := fs.ReadFile(path)
	if err != nil {
		return backup, snapshot, bosherr.WrapErrorf(err, "Reading boot sector backup `%s'", path)
	}

	err = json.Unmarshal(backupJSON, &backup)
	if err != nil {
		return backup, snapshot, bosherr.WrapErrorf(err, "Unmarshalling boot sector backup `%s'", path)
	}

	bootCode, err := hex.DecodeString(backup.BootCode)
	if err != nil {
		return backup, snapshot, bosherr.WrapErrorf(err, "Decoding boot code of backup `%s'", path)
	}

	if len(bootCode) != BootCodeSize {
		return backup, snapshot, bosherr.Errorf("Boot sector backup `%s' holds %d bytes, expected %d", path, len(bootCode), BootCodeSize)
	}

	copy(snapshot.BootCode[:], bootCode)
	snapshot.FileSize = backup.FileSize

	return backup, snapshot, nil
}
