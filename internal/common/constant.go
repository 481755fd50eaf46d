// Package common contains wire-level constants shared by the walletlink SDK,
// the CLI and the sandbox backend.
package common

// Header names used on outbound requests. A request carries exactly one of
// AppTokenHeaderName or AuthorizationHeaderName.
const (
	AppTokenHeaderName      = "X-App-Token"
	AuthorizationHeaderName = "Authorization"
	ContentTypeHeaderName   = "Content-Type"

	BearerPrefix    = "Bearer "
	JSONContentType = "application/json"
)

// Default backend locations selected by the configured environment.
const (
	DevelopmentBaseURL = "http://localhost:8080/api/v1"
	ProductionBaseURL  = "https://api.walletlink.app/api/v1"
)

// Endpoint paths, relative to the base URL.
const (
	EndpointConnectionRequest  = "/connections/request"
	EndpointConnectionRegister = "/connections/register"
	EndpointConnectionVerify   = "/connections/verify"
	EndpointConnectionRefresh  = "/connections/refresh"
	EndpointConnectionStatus   = "/connections/check/status"
	EndpointConnections        = "/connections/"

	EndpointTransactionSend    = "/transactions/send"
	EndpointTransactionGasless = "/transactions/gasless"
	EndpointTransactionConfirm = "/transactions/confirm"
	EndpointTransactionHistory = "/transactions/history"
	EndpointTransactionBalance = "/transactions/balance"
	EndpointTransactions       = "/transactions/"
)
