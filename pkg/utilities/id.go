package utilities

import (
	"os"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

var (
	nodeMu sync.Mutex
	node   *snowflake.Node
)

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

// SetSnowflakeNode replaces the snowflake node used by NewID.
func SetSnowflakeNode(nodeID int64) error {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return err
	}
	nodeMu.Lock()
	node = n
	nodeMu.Unlock()
	return nil
}

// NewID generates a row identifier. Snowflake ids are used when a node is
// available (SetSnowflakeNode, or SNOWFLAKE_NODE from the environment with a
// default of 1); otherwise a KSUID string is returned so an id is always produced.
func NewID() string {
	nodeMu.Lock()
	if node == nil {
		node, _ = snowflake.NewNode(nodeFromEnv())
	}
	n := node
	nodeMu.Unlock()
	if n == nil {
		return NewKSUID()
	}
	return n.Generate().String()
}

func nodeFromEnv() int64 {
	nodeEnv := os.Getenv("SNOWFLAKE_NODE")
	if nodeEnv == "" {
		return 1
	}
	nodeID, err := strconv.ParseInt(nodeEnv, 10, 64)
	if err != nil {
		return 1
	}
	return nodeID
}
