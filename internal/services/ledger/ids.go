package ledger

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/fastprodman/gamewallet/internal/repos/transactions"
)

// IDGenerator issues transaction ids of the form "<kind>_<snowflake>".
// Ids from one node sort in creation order; every running instance needs
// its own node id.
type IDGenerator struct {
	node *snowflake.Node
}

func NewIDGenerator(nodeID int64) (*IDGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}

	return &IDGenerator{node: node}, nil
}

func (g *IDGenerator) Next(kind transactions.Kind) string {
	return string(kind) + "_" + g.node.Generate().String()
}
