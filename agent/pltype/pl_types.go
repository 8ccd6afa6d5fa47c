package pltype

import "strings"

// Aries is the namespace of all the message types we process.
const Aries = "https://didcomm.org"

// Connection protocol constants. The invitation itself travels out of band,
// only the confirmation is sent through the wallet gateway.
const (
	ProtocolConnection   = "connection"
	HandlerInvitation    = "invitation"
	HandlerConfirm       = "confirm"
	Connection           = Aries + "/" + ProtocolConnection
	ConnectionInvitation = Connection + "/1.0/" + HandlerInvitation
	ConnectionConfirm    = Connection + "/1.0/" + HandlerConfirm
)

const (
	ProtocolNotification      = "notification"
	HandlerProblemReport      = "problem-report"
	ProblemReport             = Aries + "/" + ProtocolNotification
	NotificationProblemReport = ProblemReport + "/1.0/" + HandlerProblemReport
)

// Issue Credential protocol constants
const (
	ProtocolIssueCredential       = "issue-credential"
	HandlerIssueCredentialOffer   = "offer-credential"
	HandlerIssueCredentialRequest = "request-credential"
	HandlerIssueCredentialIssue   = "issue-credential"
	HandlerIssueCredentialACK     = "ack"
	IssueCredential               = Aries + "/" + ProtocolIssueCredential
	IssueCredentialOffer          = IssueCredential + "/1.0/" + HandlerIssueCredentialOffer
	IssueCredentialRequest        = IssueCredential + "/1.0/" + HandlerIssueCredentialRequest
	IssueCredentialIssue          = IssueCredential + "/1.0/" + HandlerIssueCredentialIssue
	IssueCredentialACK            = IssueCredential + "/1.0/" + HandlerIssueCredentialACK
)

// Present Proof protocol constants
const (
	ProtocolPresentProof            = "present-proof"
	HandlerPresentProofRequest      = "request-presentation"
	HandlerPresentProofPresentation = "presentation"
	HandlerPresentProofACK          = "ack"
	PresentProof                    = Aries + "/" + ProtocolPresentProof
	PresentProofRequest             = PresentProof + "/1.0/" + HandlerPresentProofRequest
	PresentProofPresentation        = PresentProof + "/1.0/" + HandlerPresentProofPresentation
	PresentProofACK                 = PresentProof + "/1.0/" + HandlerPresentProofACK
)

// ProtocolForType returns the protocol family of the message type, e.g.
// "issue-credential". Empty string is returned for types outside our
// namespace.
func ProtocolForType(t string) string {
	rest, ok := strings.CutPrefix(t, Aries+"/")
	if !ok {
		return ""
	}
	family, _, found := strings.Cut(rest, "/")
	if !found {
		return ""
	}
	return family
}

// ProtocolMsgForType returns the message name of the message type, i.e. the
// last part of it.
func ProtocolMsgForType(t string) string {
	i := strings.LastIndex(t, "/")
	if i < 0 {
		return t
	}
	return t[i+1:]
}
