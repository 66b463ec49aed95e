package ratelimit

import (
	"strings"
	"time"
)

const (
	LoginPath    = "/api/auth/login"
	RegisterPath = "/api/auth/register"
	APIPrefix    = "/api/"
)

// EndpointClass groups endpoints that share a quota.
type EndpointClass string

const (
	ClassNone     EndpointClass = ""
	ClassLogin    EndpointClass = "login"
	ClassRegister EndpointClass = "register"
	ClassAPI      EndpointClass = "api"
)

var (
	LoginPolicy    = Policy{Capacity: 5, RefillAmount: 5, RefillWindow: 15 * time.Minute}
	RegisterPolicy = Policy{Capacity: 3, RefillAmount: 3, RefillWindow: 60 * time.Minute}
	APIPolicy      = Policy{Capacity: 100, RefillAmount: 100, RefillWindow: time.Minute}
)

// Classify maps a request path to its endpoint class and policy. Rules are
// evaluated in order: login, register, anything else under the API prefix.
// Paths outside the API prefix return ClassNone and are not limited.
func Classify(path string) (EndpointClass, Policy, bool) {
	path = strings.TrimSuffix(path, "/")
	switch {
	case path == LoginPath:
		return ClassLogin, LoginPolicy, true
	case path == RegisterPath:
		return ClassRegister, RegisterPolicy, true
	case strings.HasPrefix(path+"/", APIPrefix):
		return ClassAPI, APIPolicy, true
	default:
		return ClassNone, Policy{}, false
	}
}

// Key builds the bucket key for a client within an endpoint class.
func Key(class EndpointClass, client string) string {
	return string(class) + ":" + client
}
