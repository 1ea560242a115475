package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// GRPCProvider invokes a generation service described by a .proto file at
// runtime, using dynamic messages instead of generated stubs. The request
// message is expected to carry prompt/grammar/max_tokens/temperature
// fields; the response text/tokens_generated/finish_reason.
type GRPCProvider struct {
	conn   *grpc.ClientConn
	method *desc.MethodDescriptor
	path   string
}

// NewGRPCProvider connects to target and resolves methodPath (in
// "package.Service/Method" form) from the given proto file.
func NewGRPCProvider(target, protoPath, methodPath string) (*GRPCProvider, error) {
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", target, err)
	}

	parser := protoparse.Parser{ImportPaths: []string{"."}}
	fds, err := parser.ParseFiles(protoPath)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("parsing proto %s: %w", protoPath, err)
	}

	method, err := findMethod(fds, methodPath)
	if err != nil {
		conn.Close()
		return nil, err
	}

	path := methodPath
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return &GRPCProvider{conn: conn, method: method, path: path}, nil
}

// Close releases the underlying connection.
func (p *GRPCProvider) Close() error {
	return p.conn.Close()
}

// Generate implements Provider by invoking the configured method with a
// dynamically built request message.
func (p *GRPCProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	msg := dynamic.NewMessage(p.method.GetInputType())
	if err := setField(msg, "prompt", req.Prompt); err != nil {
		return nil, err
	}
	if req.Grammar != "" {
		if err := setField(msg, "grammar", req.Grammar); err != nil {
			return nil, err
		}
	}
	if err := setField(msg, "max_tokens", int32(req.MaxTokens)); err != nil {
		return nil, err
	}
	if err := setField(msg, "temperature", req.Temperature); err != nil {
		return nil, err
	}

	out := dynamic.NewMessage(p.method.GetOutputType())
	if err := p.conn.Invoke(ctx, p.path, msg, out); err != nil {
		return nil, fmt.Errorf("rpc failed: %w", err)
	}

	resp := &Response{}
	if v, err := out.TryGetFieldByName("text"); err == nil {
		if s, ok := v.(string); ok {
			resp.Text = s
		}
	}
	if v, err := out.TryGetFieldByName("tokens_generated"); err == nil {
		switch n := v.(type) {
		case int32:
			resp.TokensGenerated = int(n)
		case int64:
			resp.TokensGenerated = int(n)
		}
	}
	if v, err := out.TryGetFieldByName("finish_reason"); err == nil {
		if s, ok := v.(string); ok {
			resp.FinishReason = s
		}
	}
	return resp, nil
}

func setField(msg *dynamic.Message, name string, value interface{}) error {
	if err := msg.TrySetFieldByName(name, value); err != nil {
		return fmt.Errorf("request field %q: %w", name, err)
	}
	return nil
}

func findMethod(fds []*desc.FileDescriptor, methodPath string) (*desc.MethodDescriptor, error) {
	parts := strings.Split(strings.TrimPrefix(methodPath, "/"), "/")
	if len(parts) != 2 {
		return nil, fmt.Errorf("method path %q must be Service/Method", methodPath)
	}
	serviceName, methodName := parts[0], parts[1]

	for _, fd := range fds {
		if svc := fd.FindService(serviceName); svc != nil {
			if m := svc.FindMethodByName(methodName); m != nil {
				return m, nil
			}
			return nil, fmt.Errorf("service %s has no method %s", serviceName, methodName)
		}
	}
	return nil, fmt.Errorf("service %s not found in proto", serviceName)
}
