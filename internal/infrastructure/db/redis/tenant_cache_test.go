package redis

import (
	"testing"

	goredis "github.com/redis/go-redis/v9"
)

func TestTenantCache_Key(t *testing.T) {
	c := NewTenantCache(goredis.NewClient(&goredis.Options{Addr: "localhost:0"}))
	defer c.client.Close()

	if got := c.key("acme"); got != "tenant:slug:acme" {
		t.Fatalf("unexpected key %q", got)
	}
}
