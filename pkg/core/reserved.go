package core

import (
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"
)

// ReservedConfigPaths lists the dotted paths inside spec.config that the operator owns.
// The table is part of the Bot API contract: adding or removing an entry changes which
// existing Bots validate, so it only changes together with an API version.
var ReservedConfigPaths = []string{
	"add_config_files",
	"recursive_strategy_search",
	"strategy_path",
	"strategy",
	"bot_name",
	"db_url",
	"api_server.enabled",
	"api_server.listen_ip_address",
	"api_server.listen_port",
	"api_server.jwt_secret_key",
	"api_server.username",
	"api_server.password",
	"api_server.ws_token",
	"telegram.token",
	"telegram.chat_id",
	"exchange.name",
	"exchange.key",
	"exchange.secret",
	"exchange.password",
	"freqai.enabled",
}

// ReservedEnvVars lists environment variables the bot runtime would read as overrides
// of operator-owned config. They are rejected in spec.deployment.env.
var ReservedEnvVars = []string{
	"FREQTRADE__STRATEGY",
	"FREQTRADE__STRATEGY_PATH",
	"FREQTRADE__DB_URL",
	"FREQTRADE__BOT_NAME",
	"FREQTRADE__API_SERVER__ENABLED",
	"FREQTRADE__API_SERVER__LISTEN_IP_ADDRESS",
	"FREQTRADE__API_SERVER__LISTEN_PORT",
	"FREQTRADE__API_SERVER__USERNAME",
	"FREQTRADE__API_SERVER__PASSWORD",
	"FREQTRADE__API_SERVER__JWT_SECRET_KEY",
	"FREQTRADE__API_SERVER__WS_TOKEN",
	"FREQTRADE__EXCHANGE__NAME",
	"FREQTRADE__EXCHANGE__KEY",
	"FREQTRADE__EXCHANGE__SECRET",
	"FREQTRADE__EXCHANGE__PASSWORD",
	"FREQTRADE__EXCHANGE__UID",
	"FREQTRADE__TELEGRAM__TOKEN",
	"FREQTRADE__TELEGRAM__CHAT_ID",
	"FREQTRADE__FREQAI__ENABLED",
}

// IsReservedEnvVar reports whether name overrides an operator-owned setting.
func IsReservedEnvVar(name string) bool {
	return reservedEnvVars.Has(name)
}

var reservedEnvVars = sets.New(ReservedEnvVars...)

// SplitPath splits a dotted config path into its segments.
func SplitPath(path string) []string {
	return strings.Split(path, ".")
}

// PathLookup is the result of walking a dotted path through a config tree.
type PathLookup struct {
	// Found is true when the full path exists.
	Found bool
	// Blocked names the deepest existing prefix that is not an object, if any.
	Blocked string
}

// LookupPath walks path through nested objects of tree.
func LookupPath(tree map[string]any, path string) PathLookup {
	segments := SplitPath(path)
	current := tree
	for i, segment := range segments {
		value, ok := current[segment]
		if !ok {
			return PathLookup{}
		}
		if i == len(segments)-1 {
			return PathLookup{Found: true}
		}
		next, ok := value.(map[string]any)
		if !ok {
			if value == nil {
				return PathLookup{}
			}
			return PathLookup{Blocked: strings.Join(segments[:i+1], ".")}
		}
		current = next
	}
	return PathLookup{}
}
