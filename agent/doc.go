/*
Package agent is a package for the conversation agent and its services. The
agent package is empty itself. All the functionality is inside sub-packages.

Summary of the packages:

	agency     outbound protocol driver, bounded polls, wallet life cycle
	bus        notification bus of connection and conversation status changes
	inbox      inbound dispatcher: drains, deduplicates and routes messages
	metrics    prometheus collectors of the message handling
	pltype     message types of the protocols
	prot       retry policy, keyed locks, protocol errors, step handlers
	psm        records, their bbolt store, and the protocol state tables
	ssi        wallet gateway contract and its local mailbox implementation
	utils      helpers for version, settings and nonces
*/
package agent
