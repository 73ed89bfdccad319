package evm

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcHandler func(params []json.RawMessage) (any, *rpcErrorBody)

type rpcErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// fakeNode is a minimal JSON-RPC node for ethclient-backed tests
type fakeNode struct {
	mu       sync.Mutex
	handlers map[string]rpcHandler
	calls    []string
}

func newFakeNode(t *testing.T, handlers map[string]rpcHandler) (*fakeNode, *httptest.Server) {
	t.Helper()
	node := &fakeNode{handlers: handlers}
	server := httptest.NewServer(http.HandlerFunc(node.serveHTTP))
	t.Cleanup(server.Close)
	return node, server
}

func (n *fakeNode) serveHTTP(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	n.calls = append(n.calls, req.Method)
	handler, ok := n.handlers[req.Method]
	n.mu.Unlock()

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if !ok {
		resp["error"] = rpcErrorBody{Code: -32601, Message: "method not found: " + req.Method}
	} else if result, rpcErr := handler(req.Params); rpcErr != nil {
		resp["error"] = rpcErr
	} else {
		resp["result"] = result
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (n *fakeNode) called(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()

	count := 0
	for _, c := range n.calls {
		if c == method {
			count++
		}
	}
	return count
}

func staticResult(v any) rpcHandler {
	return func([]json.RawMessage) (any, *rpcErrorBody) { return v, nil }
}
