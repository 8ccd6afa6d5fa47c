/*
Package main is an application package for the Findy conversation agent. The
agent connects wallets pairwise and runs the DIDComm conversations between
them: credential issuing and proof presentation. Everything the agent does is
driven by the wallet holder's own operations and bounded polls. There are no
callbacks from the other end, only the messages waiting in the wallet
gateway's inbound queue.

You can use the agent and its Go packages for two purposes:

1. As a CLI tool and a background service which polls the connections of all
the wallets and serves the prometheus metrics.

2. As a framework to implement issuers, holders and verifiers. The
agent/agency package is the entry point; it offers the protocol operations by
record IDs and hides the wallet gateway behind them.

# Sub-packages

	agent    includes framework packages like agency, inbox, psm, prot, ssi, ..
	cmd      cobra commands of the CLI
	cmds     command implementations the CLI runs
	protocol includes processors for the conversation protocols
*/
package main
