package occupantstoragemongodb

import (
	"io"

	"github.com/zoneworld/zoneworld/engine/common"
	"github.com/zoneworld/zoneworld/engine/gwlog"
	"github.com/zoneworld/zoneworld/engine/storage/storage_common"
	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"
)

const (
	_DEFAULT_DB_NAME = "zoneworld"
	_COLLECTION_NAME = "occupants"
)

type mongoDBOccupantStorage struct {
	s *mgo.Session
	c *mgo.Collection
}

// OpenMongoDB opens mongodb as occupant storage
func OpenMongoDB(url string, dbname string) (storagecommon.OccupantStorage, error) {
	gwlog.Debugf("Connecting MongoDB ...")
	session, err := mgo.Dial(url)
	if err != nil {
		return nil, err
	}

	session.SetMode(mgo.Monotonic, true)
	if dbname == "" {
		dbname = _DEFAULT_DB_NAME
	}
	return &mongoDBOccupantStorage{
		s: session,
		c: session.DB(dbname).C(_COLLECTION_NAME),
	}, nil
}

func (es *mongoDBOccupantStorage) Write(playerID common.PlayerID, data map[string]interface{}) error {
	_, err := es.c.UpsertId(string(playerID), bson.M{
		"data": data,
	})
	return err
}

func (es *mongoDBOccupantStorage) Read(playerID common.PlayerID) (map[string]interface{}, error) {
	var doc bson.M
	err := es.c.FindId(string(playerID)).One(&doc)
	if err == mgo.ErrNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	switch data := doc["data"].(type) {
	case bson.M:
		return map[string]interface{}(data), nil
	case map[string]interface{}:
		return data, nil
	}
	return nil, nil
}

func (es *mongoDBOccupantStorage) List() ([]common.PlayerID, error) {
	var docs []bson.M
	if err := es.c.Find(nil).Select(bson.M{"_id": 1}).All(&docs); err != nil {
		return nil, err
	}

	ids := make([]common.PlayerID, 0, len(docs))
	for _, doc := range docs {
		if id, ok := doc["_id"].(string); ok {
			ids = append(ids, common.PlayerID(id))
		}
	}
	return ids, nil
}

func (es *mongoDBOccupantStorage) Close() {
	es.s.Close()
}

func (es *mongoDBOccupantStorage) IsEOF(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF
}
