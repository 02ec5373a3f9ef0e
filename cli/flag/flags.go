package flag

// Flag names and shorthands used by the CLI.
const (
	Server        = "server"
	ServerShort   = "s"
	User          = "user"
	UserShort     = "u"
	LogLevel      = "log-level"
	LogLevelShort = "l"
)

// Set contains the values of the CLI flags.
type Set struct {
	Server   string
	User     string
	LogLevel string
}

// Value is the set of parsed flag values.
var Value Set
