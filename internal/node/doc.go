// Package node implements one cluster member: the protocol state machine
// answering harness requests and the loop that interleaves them with gossip
// rounds. A Node is generic over its fact type; counter and broadcast
// replicas plug in through Replica.
package node
