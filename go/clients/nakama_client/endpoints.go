package nakama_client

const (
	// Local server defaults
	DefaultScheme    = "http"
	DefaultHost      = "127.0.0.1"
	DefaultPort      = 7350
	DefaultServerKey = "defaultkey"

	// API Endpoints
	AuthenticateDeviceEndpoint = "/v2/account/authenticate/device"
	AuthenticateEmailEndpoint  = "/v2/account/authenticate/email"
	LeaderboardEndpoint        = "/v2/leaderboard/"
	RPCEndpoint                = "/v2/rpc/"
	SocketEndpoint             = "/ws"

	// Headers
	AuthorizationHeader = "Authorization"
)
