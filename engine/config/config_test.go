package config

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/bmizerany/assert"
	"github.com/zoneworld/zoneworld/engine/common"
	"github.com/zoneworld/zoneworld/engine/gwlog"
)

func init() {
	SetConfigFile("../../zoneworld.ini.sample")
}

func TestLoad(t *testing.T) {
	config := Get()
	if config == nil {
		t.FailNow()
	}
	for sid, sc := range config.Servers {
		if sc.Ip == "" {
			t.Errorf("server %s ip not found", sid)
		}
		if sc.Role == "" {
			t.Errorf("server %s role not found", sid)
		}
	}
	gwlog.Infof("read config: %v", config)
}

func TestReload(t *testing.T) {
	Get()
	config := Reload()
	assert.T(t, config != nil, "reload failed")
}

func TestGetServer(t *testing.T) {
	area1 := GetServer("area1")
	assert.T(t, area1 != nil, "area1 not found")
	assert.Equal(t, common.RoleArea, area1.Role)
	assert.Equal(t, []common.AreaID{1, 2}, area1.Areas)
	assert.Equal(t, "127.0.0.1:14001", area1.ClientAddr())
	assert.Equal(t, "debug", area1.LogLevel)

	connector1 := GetServer("connector1")
	assert.Equal(t, "127.0.0.1", connector1.Ip)
	assert.Equal(t, false, connector1.CompressConnection)
	assert.Equal(t, "info", connector1.LogLevel)
	assert.Equal(t, 0, len(connector1.Areas))

	manager := GetServer("manager")
	assert.T(t, manager != nil, "manager not found")
	assert.Equal(t, common.RoleManager, manager.Role)

	assert.T(t, GetServer("area9") == nil, "area9 should not exist")
}

func TestGetServerIDsByRole(t *testing.T) {
	assert.Equal(t, []common.ServerID{"area1", "area2"}, GetServerIDsByRole(common.RoleArea))
	assert.Equal(t, []common.ServerID{"instance1", "instance2"}, GetServerIDsByRole(common.RoleInstance))
}

func TestRoster(t *testing.T) {
	roster := Roster()
	assert.Equal(t, len(Get().Servers), len(roster))
	for i := 1; i < len(roster); i++ {
		assert.T(t, roster[i-1].ID < roster[i].ID, "roster not sorted")
	}
}

func TestGetWorld(t *testing.T) {
	world := GetWorld()
	assert.Equal(t, "data/areas.yaml", world.AreaData)
	assert.Equal(t, time.Second*10, world.ReapInterval)
	assert.Equal(t, time.Minute, world.IdleTimeout)
	assert.Equal(t, time.Millisecond*100, world.RetryBackoff)
	assert.Equal(t, "../../data/areas.yaml", ResolvePath(world.AreaData))
}

func TestGetStorage(t *testing.T) {
	cfg := GetStorage()
	if cfg == nil {
		t.Errorf("storage config not found")
	}
	fmt.Fprintf(os.Stderr, "%s\n", DumpPretty(cfg))
	assert.Equal(t, "filesystem", cfg.Type)
}

func TestGetKVDB(t *testing.T) {
	assert.T(t, GetKVDB() != nil, "kvdb config is nil")
	assert.Equal(t, "session$", GetKVDB().SessionKey)
}

func TestGetMembership(t *testing.T) {
	assert.Equal(t, "none", GetMembership().Feed)
}

func TestParseMembershipSecret(t *testing.T) {
	cfg, err := Parse([]byte("[gate1]\n[membership]\nfeed = redis\nurl = redis://127.0.0.1:6379\nsecret = s3cret\n"))
	assert.Equal(t, nil, err)
	assert.Equal(t, "s3cret", cfg.Membership.Secret)
	assert.Equal(t, "zoneworld.membership", cfg.Membership.Channel)
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"[area1]\nport = 1\n",                   // area server owns no area
		"[area1]\nareas = 1\nfoo = bar\n",       // unknown key
		"[dispatcher1]\nport = 1\n",             // unknown section
		"[gate1]\nareas = 1\n",                  // gate owns area
		"[area1]\nareas = x\n",                  // bad area id
		"[gate1]\n[membership]\nfeed = kafka\n", // unknown feed
		"[gate1]\n[membership]\nfeed = redis\nurl = redis://127.0.0.1:6379\n", // no secret
		"[gate1]\n[kvdb]\ntype = redis_cluster\n",                             // no start nodes
		"[manager]\n[manager1]\n",                                             // two managers
		"[world]\nmax_instances = 0\n[gate1]\n",                               // bad world config
	}
	for _, data := range cases {
		_, err := Parse([]byte(data))
		assert.Tf(t, err != nil, "should fail: %q", data)
	}
}

func TestParseCommon(t *testing.T) {
	cfg, err := Parse([]byte("[instance_common]\nlog_level = warn\n[instance3]\nport = 9\n"))
	assert.Equal(t, nil, err)
	sc := cfg.Servers["instance3"]
	assert.Equal(t, "warn", sc.LogLevel)
	assert.Equal(t, "instance.log", sc.LogFile)
	assert.Equal(t, 9, sc.Port)
}
