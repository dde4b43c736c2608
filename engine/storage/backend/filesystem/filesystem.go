package occupantstoragefilesystem

import (
	"encoding/base64"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/zoneworld/zoneworld/engine/common"
	"github.com/zoneworld/zoneworld/engine/consts"
	"github.com/zoneworld/zoneworld/engine/gwlog"
	"github.com/zoneworld/zoneworld/engine/storage/storage_common"
)

const (
	filePrefix = "occupant$"
)

type fileSystemOccupantStorage struct {
	directory string
}

// OpenDirectory opens a directory as occupant storage, creating it if needed
func OpenDirectory(directory string) (storagecommon.OccupantStorage, error) {
	if err := os.MkdirAll(directory, 0755); err != nil {
		return nil, err
	}

	return &fileSystemOccupantStorage{
		directory: directory,
	}, nil
}

func (es *fileSystemOccupantStorage) getFilePath(playerID common.PlayerID) string {
	return filepath.Join(es.directory, filePrefix+base64.URLEncoding.EncodeToString([]byte(playerID)))
}

func (es *fileSystemOccupantStorage) Write(playerID common.PlayerID, data map[string]interface{}) error {
	saveFile := es.getFilePath(playerID)
	dataBytes, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}

	if consts.DEBUG_SAVE_LOAD {
		gwlog.Debugf("Saving to file %s: %s", saveFile, string(dataBytes))
	}
	return ioutil.WriteFile(saveFile, dataBytes, 0644)
}

func (es *fileSystemOccupantStorage) Read(playerID common.PlayerID) (map[string]interface{}, error) {
	dataBytes, err := ioutil.ReadFile(es.getFilePath(playerID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var data map[string]interface{}
	if err = json.Unmarshal(dataBytes, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func (es *fileSystemOccupantStorage) List() ([]common.PlayerID, error) {
	files, err := filepath.Glob(filepath.Join(es.directory, filePrefix+"*"))
	if err != nil {
		return nil, err
	}
	res := make([]common.PlayerID, 0, len(files))
	for _, fpath := range files {
		_, fn := filepath.Split(fpath)
		if !strings.HasPrefix(fn, filePrefix) {
			gwlog.Errorf("invalid file: %s", fpath)
			continue
		}
		idbytes, err := base64.URLEncoding.DecodeString(fn[len(filePrefix):])
		if err != nil {
			gwlog.TraceError("fail to parse file %s", fpath)
			continue
		}
		res = append(res, common.PlayerID(idbytes))
	}
	return res, nil
}

func (es *fileSystemOccupantStorage) Close() {
}

func (es *fileSystemOccupantStorage) IsEOF(err error) bool {
	return false
}
