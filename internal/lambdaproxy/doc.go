// Package lambdaproxy runs the api.Router behind AWS API Gateway.
//
// Handler.Invoke is registered with lambda.Start. It inspects the raw event
// and decodes it as either an events.APIGatewayProxyRequest (REST API,
// payload 1.0) or an events.APIGatewayV2HTTPRequest (HTTP API, payload 2.0),
// turns it into an api.Request and returns the envelope in the matching
// response type. A missing path is treated as "/". An event that decodes as
// neither is answered with a payload 1.0 500 envelope.
package lambdaproxy
