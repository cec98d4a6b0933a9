package domain

import (
	"fmt"
	"strings"
)

// Period represents a trade-history aggregation window supported by the
// upstream collection source
type Period string

const (
	// Period90d covers the trailing 90 days of trading activity
	Period90d Period = "90d"
	// PeriodAllTime covers the full trading history of a collection
	PeriodAllTime Period = "all_time"
)

// IsValidPeriod checks if a period is supported upstream
func IsValidPeriod(p Period) bool {
	return p == Period90d || p == PeriodAllTime
}

// EntityType discriminates what a trade aggregate row describes
type EntityType string

const (
	// EntityTypeCollection marks a trade aggregate for a whole collection
	EntityTypeCollection EntityType = "collection"
	// EntityTypeToken marks a trade aggregate for a single token
	EntityTypeToken EntityType = "token"
)

// NetworkID identifies a blockchain network (e.g. "ethereum")
type NetworkID string

const (
	NetworkEthereum NetworkID = "ethereum"
	NetworkPolygon  NetworkID = "polygon"
)

// SourceRarify is the registry identifier of the Rarify collection source
const SourceRarify = "rarify"

// ContractID is the globally unique collection identifier, qualified with its
// network in the form "network:address" (e.g. "ethereum:0xbc4c...")
type ContractID string

// Valid checks that a contract ID carries both a network prefix and an address
func (c ContractID) Valid() bool {
	network, address, ok := strings.Cut(string(c), ":")
	return ok && network != "" && address != ""
}

// Network returns the network prefix of the contract ID
func (c ContractID) Network() NetworkID {
	network, _, _ := strings.Cut(string(c), ":")
	return NetworkID(network)
}

// NewContractID builds a qualified contract ID from a network and an address
func NewContractID(network NetworkID, address string) ContractID {
	return ContractID(fmt.Sprintf("%s:%s", network, address))
}
