/*
Package protocol is package for the protocol processors. Protocol processors
implement the actual protocol state transitions. The transition rules are in
agent/psm, and the processors register the handlers of the steps to
agent/prot.

	connection       pairwise connection registry and its invitation
	conversation     conversation ledger which runs every protocol thread
	issuecredential  issuer and holder steps of the credential issuing
	presentproof     verifier and prover steps of the proof presentation
	notification     problem report which ends the thread for both ends
*/
package protocol
