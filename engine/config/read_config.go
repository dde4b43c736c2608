package config

import (
	"encoding/json"
	"fmt"
	"net"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-ini/ini"
	"github.com/pkg/errors"
	"github.com/zoneworld/zoneworld/engine/common"
	"github.com/zoneworld/zoneworld/engine/consts"
	"github.com/zoneworld/zoneworld/engine/gwlog"
)

const (
	_DEFAULT_CONFIG_FILE      = "zoneworld.ini"
	_DEFAULT_LOCALHOST_IP     = "127.0.0.1"
	_DEFAULT_HTTP_IP          = "127.0.0.1"
	_DEFAULT_LOG_LEVEL        = "debug"
	_DEFAULT_STORAGE_DB       = "zoneworld"
	_DEFAULT_MEMBERSHIP_CHAN  = "zoneworld.membership"
	_DEFAULT_AREA_DATA        = "data/areas.yaml"
	_DEFAULT_INSTANCE_DATA    = "data/instances.yaml"
	_COMMON_SECTION_SUFFIX    = "_common"
	_MEMBERSHIP_FEED_NONE     = "none"
	_MEMBERSHIP_FEED_REDIS    = "redis"
	_DEFAULT_SESSION_KEY_HEAD = "session$"
)

var (
	configFilePath  = _DEFAULT_CONFIG_FILE
	zoneWorldConfig *ZoneWorldConfig
	configLock      sync.Mutex
)

// ServerConfig defines fields of a server process, read from [<role>N] sections
type ServerConfig struct {
	ID         common.ServerID
	Role       common.Role
	Ip         string
	Port       int
	KCPPort    int
	HTTPIp     string
	HTTPPort   int
	LogFile    string
	LogStderr  bool
	LogLevel   string
	GoMaxProcs int
	Areas      []common.AreaID

	CompressConnection bool
}

// ClientAddr returns the address clients should be redirected to
func (sc *ServerConfig) ClientAddr() string {
	if sc.Port == 0 {
		return ""
	}
	return net.JoinHostPort(sc.Ip, strconv.Itoa(sc.Port))
}

// ListenAddr returns the TCP address to listen on
func (sc *ServerConfig) ListenAddr() string {
	return net.JoinHostPort(sc.Ip, strconv.Itoa(sc.Port))
}

// WorldConfig defines the world data and instance tuning
type WorldConfig struct {
	AreaData          string
	InstanceTemplates string
	MaxInstances      int
	ReapInterval      time.Duration
	IdleTimeout       time.Duration
	RetryAttempts     int
	RetryBackoff      time.Duration
}

// StorageConfig defines fields of occupant storage config
type StorageConfig struct {
	Type       string // Type of storage (filesystem, mongodb, redis)
	Directory  string // Directory of filesystem storage (filesystem)
	Url        string // Connection URL (mongodb, redis)
	DB         string // Database name (mongodb, redis)
	StartNodes common.StringSet
}

// KVDBConfig defines fields of KVDB config, which stores sessions
type KVDBConfig struct {
	Type       string
	Url        string // MongoDB
	DB         string // MongoDB
	Collection string // MongoDB
	SessionKey string
	StartNodes common.StringSet
}

// MembershipConfig defines where membership events come from
type MembershipConfig struct {
	Feed    string // none or redis
	Url     string
	Channel string
	Secret  string // servers present it when asking the manager to announce them
}

// ZoneWorldConfig defines the total config file structure
type ZoneWorldConfig struct {
	Commons    map[common.Role]*ServerConfig
	Servers    map[common.ServerID]*ServerConfig
	World      WorldConfig
	Storage    StorageConfig
	KVDB       KVDBConfig
	Membership MembershipConfig
}

// SetConfigFile sets the config file path (zoneworld.ini by default)
func SetConfigFile(f string) {
	configFilePath = f
}

// GetConfigDir returns the directory of zoneworld.ini
func GetConfigDir() string {
	dir, _ := path.Split(configFilePath)
	return dir
}

// GetConfigFilePath returns the config file path
func GetConfigFilePath() string {
	return configFilePath
}

// ResolvePath resolves a path in config relative to the config directory
func ResolvePath(p string) string {
	if p == "" || path.IsAbs(p) {
		return p
	}
	return path.Join(GetConfigDir(), p)
}

// Get returns the total config
func Get() *ZoneWorldConfig {
	configLock.Lock()
	defer configLock.Unlock()
	if zoneWorldConfig == nil {
		zoneWorldConfig = readZoneWorldConfig()
	}
	return zoneWorldConfig
}

// Reload forces the whole config to be read again
func Reload() *ZoneWorldConfig {
	configLock.Lock()
	zoneWorldConfig = nil
	configLock.Unlock()

	return Get()
}

// GetServer gets the config of specified server, nil if not found
func GetServer(sid common.ServerID) *ServerConfig {
	return Get().Servers[sid]
}

// GetServerIDsByRole returns sorted IDs of all servers of the role
func GetServerIDsByRole(role common.Role) []common.ServerID {
	cfg := Get()
	var ids []common.ServerID
	for id, sc := range cfg.Servers {
		if sc.Role == role {
			ids = append(ids, id)
		}
	}
	return common.SortServerIDs(ids)
}

// Roster returns all configured servers sorted by ID
func Roster() []*ServerConfig {
	cfg := Get()
	ids := make([]common.ServerID, 0, len(cfg.Servers))
	for id := range cfg.Servers {
		ids = append(ids, id)
	}
	common.SortServerIDs(ids)
	roster := make([]*ServerConfig, len(ids))
	for i, id := range ids {
		roster[i] = cfg.Servers[id]
	}
	return roster
}

// GetWorld returns the world config
func GetWorld() *WorldConfig {
	return &Get().World
}

// GetStorage returns the storage config
func GetStorage() *StorageConfig {
	return &Get().Storage
}

// GetKVDB returns the KVDB config
func GetKVDB() *KVDBConfig {
	return &Get().KVDB
}

// GetMembership returns the membership feed config
func GetMembership() *MembershipConfig {
	return &Get().Membership
}

// DumpPretty format config to string in pretty format
func DumpPretty(cfg interface{}) string {
	s, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return err.Error()
	}
	return string(s)
}

func readZoneWorldConfig() *ZoneWorldConfig {
	gwlog.Infof("Using config file: %s", configFilePath)
	iniFile, err := ini.Load(configFilePath)
	checkConfigError(err, "")
	config, err := parseConfig(iniFile)
	checkConfigError(err, "")
	return config
}

// Parse parses config from ini file content
func Parse(data []byte) (*ZoneWorldConfig, error) {
	iniFile, err := ini.Load(data)
	if err != nil {
		return nil, errors.Wrap(err, "load ini")
	}
	return parseConfig(iniFile)
}

func parseConfig(iniFile *ini.File) (config *ZoneWorldConfig, err error) {
	defer func() {
		if r := recover(); r != nil {
			config = nil
			err = errors.Errorf("%v", r)
		}
	}()

	config = &ZoneWorldConfig{
		Commons: map[common.Role]*ServerConfig{},
		Servers: map[common.ServerID]*ServerConfig{},
	}
	for _, role := range common.Roles {
		sc := newDefaultServerConfig(role)
		if sec, err := iniFile.GetSection(string(role) + _COMMON_SECTION_SUFFIX); err == nil {
			readServerConfig(sec, sc)
		}
		config.Commons[role] = sc
	}

	readWorldConfig(iniFile.Section("world"), &config.World)
	readStorageConfig(iniFile.Section("storage"), &config.Storage)
	readKVDBConfig(iniFile.Section("kvdb"), &config.KVDB)
	readMembershipConfig(iniFile.Section("membership"), &config.Membership)

	for _, sec := range iniFile.Sections() {
		if sec.Name() == ini.DefaultSection {
			continue
		}
		secName := strings.ToLower(sec.Name())
		if secName == "world" || secName == "storage" || secName == "kvdb" || secName == "membership" {
			continue
		}
		if strings.HasSuffix(secName, _COMMON_SECTION_SUFFIX) {
			if _, err := common.ParseRole(strings.TrimSuffix(secName, _COMMON_SECTION_SUFFIX)); err != nil {
				gwlog.Panicf("unknown section: %s", secName)
			}
			continue
		}

		role, ok := parseServerSectionName(secName)
		if !ok {
			gwlog.Panicf("unknown section: %s", secName)
		}
		sc := *config.Commons[role] // copy from <role>_common
		sc.ID = common.ServerID(secName)
		sc.Areas = nil
		readServerConfig(sec, &sc)
		config.Servers[sc.ID] = &sc
	}

	validateConfig(config)
	return config, nil
}

// parseServerSectionName parses sections like area1, instance2 or manager
func parseServerSectionName(secName string) (common.Role, bool) {
	for _, role := range common.Roles {
		prefix := string(role)
		if !strings.HasPrefix(secName, prefix) {
			continue
		}
		idx := secName[len(prefix):]
		if idx == "" {
			return role, true
		}
		if _, err := strconv.Atoi(idx); err == nil {
			return role, true
		}
	}
	return "", false
}

func newDefaultServerConfig(role common.Role) *ServerConfig {
	return &ServerConfig{
		Role:      role,
		Ip:        _DEFAULT_LOCALHOST_IP,
		HTTPIp:    _DEFAULT_HTTP_IP,
		HTTPPort:  0, // pprof not enabled by default
		LogFile:   string(role) + ".log",
		LogStderr: true,
		LogLevel:  _DEFAULT_LOG_LEVEL,
	}
}

func readServerConfig(sec *ini.Section, sc *ServerConfig) {
	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "ip" {
			sc.Ip = key.MustString(sc.Ip)
		} else if name == "port" {
			sc.Port = key.MustInt(sc.Port)
		} else if name == "kcp_port" {
			sc.KCPPort = key.MustInt(sc.KCPPort)
		} else if name == "http_ip" {
			sc.HTTPIp = key.MustString(sc.HTTPIp)
		} else if name == "http_port" {
			sc.HTTPPort = key.MustInt(sc.HTTPPort)
		} else if name == "log_file" {
			sc.LogFile = key.MustString(sc.LogFile)
		} else if name == "log_stderr" {
			sc.LogStderr = key.MustBool(sc.LogStderr)
		} else if name == "log_level" {
			sc.LogLevel = key.MustString(sc.LogLevel)
		} else if name == "gomaxprocs" {
			sc.GoMaxProcs = key.MustInt(sc.GoMaxProcs)
		} else if name == "areas" {
			sc.Areas = parseAreaList(sec.Name(), key.Strings(","))
		} else if name == "compress_connection" {
			sc.CompressConnection = key.MustBool(sc.CompressConnection)
		} else {
			gwlog.Panicf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}
}

func parseAreaList(secName string, items []string) []common.AreaID {
	areas := common.AreaIDSet{}
	for _, item := range items {
		if item == "" {
			continue
		}
		id, err := strconv.Atoi(item)
		checkConfigError(err, fmt.Sprintf("section %s: invalid area id: %s", secName, item))
		if common.AreaID(id).IsNil() {
			gwlog.Panicf("section %s: area id must be positive: %d", secName, id)
		}
		areas.Add(common.AreaID(id))
	}
	return areas.ToList()
}

func readWorldConfig(sec *ini.Section, config *WorldConfig) {
	config.AreaData = _DEFAULT_AREA_DATA
	config.InstanceTemplates = _DEFAULT_INSTANCE_DATA
	config.MaxInstances = consts.DEFAULT_MAX_INSTANCES
	config.ReapInterval = consts.DEFAULT_REAP_INTERVAL
	config.IdleTimeout = consts.DEFAULT_INSTANCE_IDLE_TIMEOUT
	config.RetryAttempts = consts.DEFAULT_ROUTE_RETRY_ATTEMPTS
	config.RetryBackoff = consts.DEFAULT_ROUTE_RETRY_BACKOFF

	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "area_data" {
			config.AreaData = key.MustString(config.AreaData)
		} else if name == "instance_templates" {
			config.InstanceTemplates = key.MustString(config.InstanceTemplates)
		} else if name == "max_instances" {
			config.MaxInstances = key.MustInt(config.MaxInstances)
		} else if name == "reap_interval" {
			config.ReapInterval = time.Second * time.Duration(key.MustInt(int(config.ReapInterval/time.Second)))
		} else if name == "idle_timeout" {
			config.IdleTimeout = time.Second * time.Duration(key.MustInt(int(config.IdleTimeout/time.Second)))
		} else if name == "retry_attempts" {
			config.RetryAttempts = key.MustInt(config.RetryAttempts)
		} else if name == "retry_backoff_ms" {
			config.RetryBackoff = time.Millisecond * time.Duration(key.MustInt(int(config.RetryBackoff/time.Millisecond)))
		} else {
			gwlog.Panicf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}

	if config.MaxInstances <= 0 {
		gwlog.Panicf("max_instances must be positive")
	}
	if config.ReapInterval <= 0 || config.IdleTimeout <= 0 {
		gwlog.Panicf("reap_interval and idle_timeout must be positive")
	}
	if config.RetryAttempts <= 0 {
		gwlog.Panicf("retry_attempts must be positive")
	}
}

func readStorageConfig(sec *ini.Section, config *StorageConfig) {
	// setup default values
	config.Type = "filesystem"
	config.Directory = "_occupant_storage"
	config.DB = _DEFAULT_STORAGE_DB
	config.Url = ""
	config.StartNodes = common.StringSet{}

	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "type" {
			config.Type = key.MustString(config.Type)
		} else if name == "directory" {
			config.Directory = key.MustString(config.Directory)
		} else if name == "url" {
			config.Url = key.MustString(config.Url)
		} else if name == "db" {
			config.DB = key.MustString(config.DB)
		} else if strings.HasPrefix(name, "start_nodes_") {
			config.StartNodes.Add(key.MustString(""))
		} else {
			gwlog.Panicf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}

	if config.Type == "redis" {
		if config.DB == "" || config.DB == _DEFAULT_STORAGE_DB {
			config.DB = "0"
		}
	}

	validateStorageConfig(config)
}

func readKVDBConfig(sec *ini.Section, config *KVDBConfig) {
	config.SessionKey = _DEFAULT_SESSION_KEY_HEAD
	config.StartNodes = common.StringSet{}
	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "type" {
			config.Type = key.MustString(config.Type)
		} else if name == "url" {
			config.Url = key.MustString(config.Url)
		} else if name == "db" {
			config.DB = key.MustString(config.DB)
		} else if name == "collection" {
			config.Collection = key.MustString(config.Collection)
		} else if name == "session_key" {
			config.SessionKey = key.MustString(config.SessionKey)
		} else if strings.HasPrefix(name, "start_nodes_") {
			config.StartNodes.Add(key.MustString(""))
		} else {
			gwlog.Panicf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}

	if config.Type == "redis" {
		if config.DB == "" {
			config.DB = "0"
		}
	}

	validateKVDBConfig(config)
}

func readMembershipConfig(sec *ini.Section, config *MembershipConfig) {
	config.Feed = _MEMBERSHIP_FEED_NONE
	config.Channel = _DEFAULT_MEMBERSHIP_CHAN
	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "feed" {
			config.Feed = key.MustString(config.Feed)
		} else if name == "url" {
			config.Url = key.MustString(config.Url)
		} else if name == "channel" {
			config.Channel = key.MustString(config.Channel)
		} else if name == "secret" {
			config.Secret = key.MustString(config.Secret)
		} else {
			gwlog.Panicf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}

	if config.Feed == _MEMBERSHIP_FEED_REDIS {
		if config.Url == "" || config.Channel == "" {
			gwlog.Panicf("url and channel must be set for redis membership feed")
		}
		if config.Secret == "" {
			gwlog.Panicf("secret must be set for redis membership feed")
		}
	} else if config.Feed != _MEMBERSHIP_FEED_NONE {
		gwlog.Panicf("unknown membership feed: %s", config.Feed)
	}
}

func validateKVDBConfig(config *KVDBConfig) {
	if config.Type == "" {
		// KVDB not enabled, it's OK
	} else if config.Type == "mongodb" {
		// must set DB and Collection for mongodb
		if config.Url == "" || config.DB == "" || config.Collection == "" {
			gwlog.Panicf("invalid %s KVDB config: %s", config.Type, DumpPretty(config))
		}
	} else if config.Type == "redis" {
		if config.Url == "" {
			gwlog.Panicf("invalid %s KVDB config: %s", config.Type, DumpPretty(config))
		}
		if _, err := strconv.Atoi(config.DB); err != nil { // make sure db is integer for redis
			gwlog.Panic(errors.Wrap(err, "redis db must be integer"))
		}
	} else if config.Type == "redis_cluster" {
		validateStartNodes("kvdb", config.StartNodes)
	} else {
		gwlog.Panicf("unknown kvdb type: %s", config.Type)
	}
}

func validateStorageConfig(config *StorageConfig) {
	if config.Type == "filesystem" {
		// directory must be set
		if config.Directory == "" {
			gwlog.Panicf("directory is not set in %s storage config", config.Type)
		}
	} else if config.Type == "mongodb" {
		if config.Url == "" {
			gwlog.Panicf("url is not set in %s storage config", config.Type)
		}
		if config.DB == "" {
			gwlog.Panicf("db is not set in %s storage config", config.Type)
		}
	} else if config.Type == "redis" {
		if config.Url == "" {
			gwlog.Panicf("redis host is not set")
		}
		if _, err := strconv.Atoi(config.DB); err != nil {
			gwlog.Panic(errors.Wrap(err, "redis db must be integer"))
		}
	} else if config.Type == "redis_cluster" {
		validateStartNodes("storage", config.StartNodes)
	} else {
		gwlog.Panicf("unknown storage type: %s", config.Type)
	}
}

func validateStartNodes(secName string, nodes common.StringSet) {
	if len(nodes) == 0 {
		gwlog.Panicf("must have at least 1 start_nodes for [%s].redis_cluster", secName)
	}
	for s := range nodes {
		if s == "" {
			gwlog.Panicf("start_nodes must not be empty")
		}
	}
}

func checkConfigError(err error, msg string) {
	if err != nil {
		if msg == "" {
			msg = err.Error()
		}
		gwlog.Panicf("read config error: %s", msg)
	}
}

func validateConfig(config *ZoneWorldConfig) {
	if len(config.Servers) == 0 {
		gwlog.Panicf("no server found in config file")
	}

	ids := make([]string, 0, len(config.Servers))
	for id := range config.Servers {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	managers := 0
	for _, id := range ids {
		sc := config.Servers[common.ServerID(id)]
		if sc.Role.HostsAreas() && len(sc.Areas) == 0 {
			gwlog.Panicf("%s: area server must own at least 1 area", id)
		}
		if !sc.Role.HostsAreas() && len(sc.Areas) > 0 {
			gwlog.Panicf("%s: only area servers can own areas", id)
		}
		if sc.Role == common.RoleManager {
			managers++
		}
	}
	if managers > 1 {
		gwlog.Panicf("found %d managers in config file, must has at most 1 manager", managers)
	}
}
