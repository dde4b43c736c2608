package consts

import "time"

// Tunable Options
const (
	// For Server Service
	// SERVICE_TICK_INTERVAL is the tick interval to tick timers and posts in the main routine
	SERVICE_TICK_INTERVAL = time.Millisecond * 10

	// For Client Connections
	// CLIENT_PROXY_WRITE_BUFFER_SIZE is the write buffer size for client connections
	CLIENT_PROXY_WRITE_BUFFER_SIZE = 1024 * 1024
	// CLIENT_PROXY_READ_BUFFER_SIZE is the read buffer size for client connections
	CLIENT_PROXY_READ_BUFFER_SIZE = 1024 * 1024
	// CLIENT_PROXY_SET_TCP_NO_DELAY = true sets client connections to TcpNoDelay
	CLIENT_PROXY_SET_TCP_NO_DELAY = true
	// BUFFERED_READ_BUFFSIZE is the read buffer size of buffered connections
	BUFFERED_READ_BUFFSIZE = 16384
	// BUFFERED_WRITE_BUFFSIZE is the write buffer size of buffered connections
	BUFFERED_WRITE_BUFFSIZE = 16384
	// CLIENT_IDLE_TIMEOUT closes client connections which send nothing for this long
	CLIENT_IDLE_TIMEOUT = time.Minute * 5

	// For Instances
	// DEFAULT_MAX_INSTANCES is the default ceiling of live instances on an instance host
	DEFAULT_MAX_INSTANCES = 1000
	// DEFAULT_INSTANCE_CAPACITY is the occupant capacity of templates which do not set one
	DEFAULT_INSTANCE_CAPACITY = 5
	// DEFAULT_INSTANCE_IDLE_TIMEOUT is how long an empty instance is kept before being reaped
	DEFAULT_INSTANCE_IDLE_TIMEOUT = time.Minute
	// DEFAULT_REAP_INTERVAL is the interval of reaping idle instances
	DEFAULT_REAP_INTERVAL = time.Second * 10

	// For Routing
	// DEFAULT_ROUTE_RETRY_ATTEMPTS is the max number of attempts when an area is temporarily unowned
	DEFAULT_ROUTE_RETRY_ATTEMPTS = 5
	// DEFAULT_ROUTE_RETRY_BACKOFF is the initial backoff between route attempts
	DEFAULT_ROUTE_RETRY_BACKOFF = time.Millisecond * 100
	// ROUTE_OPERATION_WARN_THRESHOLD warns routing operations slower than this
	ROUTE_OPERATION_WARN_THRESHOLD = time.Millisecond * 100

	// For Membership
	// MEMBERSHIP_MAX_PENDING_EVENTS is the max number of out-of-order events held by the coordinator
	MEMBERSHIP_MAX_PENDING_EVENTS = 1024
	// MEMBERSHIP_FEED_RETRY_INTERVAL is the interval of reconnecting a broken membership feed
	MEMBERSHIP_FEED_RETRY_INTERVAL = time.Second * 3

	// For Scenes
	// AOI_DISTANCE is the distance within which occupants of an area see each other
	AOI_DISTANCE = 100

	// For Async Jobs
	// ASYNC_JOB_QUEUE_MAXLEN is the max number of queued jobs per async group
	ASYNC_JOB_QUEUE_MAXLEN = 10000

	// For Storage
	// STORAGE_OPERATION_WARN_THRESHOLD warns storage operations slower than this
	STORAGE_OPERATION_WARN_THRESHOLD = time.Millisecond * 100

	// For Operation Monitor
	// OPMON_DUMP_INTERVAL is the interval to print opmon infos to output
	OPMON_DUMP_INTERVAL = 0

	// PROCESS_STATS_INTERVAL is the interval of sampling process stats
	PROCESS_STATS_INTERVAL = time.Minute
)

// Debug Options
const (
	// DEBUG_ROUTING prints routing debug logs
	DEBUG_ROUTING = false
	// DEBUG_INSTANCES prints instance pool debug logs
	DEBUG_INSTANCES = false
	// DEBUG_MEMBERSHIP prints membership event debug logs
	DEBUG_MEMBERSHIP = false
	// DEBUG_SCENES prints scene debug logs
	DEBUG_SCENES = false
	// DEBUG_PACKETS prints every message sent and received
	DEBUG_PACKETS = false
	// DEBUG_CLIENTS prints client connect and disconnect logs
	DEBUG_CLIENTS = false
	// DEBUG_SAVE_LOAD prints save & load debug logs
	DEBUG_SAVE_LOAD = false
)

// System level configurations
const (
	// DEBUG_MODE = true turns on debug mode
	DEBUG_MODE = false
)
