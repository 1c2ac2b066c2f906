package grpcserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"contentBackend/internal/auth"
	"contentBackend/internal/service"
	"contentBackend/models"
)

// ContentServer implements ContentServiceServer on top of the services.
type ContentServer struct {
	Accounts *service.Accounts
	Articles *service.Articles
	Logger   *slog.Logger
}

var _ ContentServiceServer = (*ContentServer)(nil)

// Register creates a user from {username, password, isAdmin}.
func (s *ContentServer) Register(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	username, err := stringField(in, "username")
	if err != nil {
		return nil, err
	}
	password, err := stringField(in, "password")
	if err != nil {
		return nil, err
	}
	isAdmin, err := rawField(in, "isAdmin")
	if err != nil {
		return nil, err
	}
	if _, err := s.Accounts.Register(ctx, username, password, models.Truthy(isAdmin)); err != nil {
		return nil, s.toStatus(ctx, "Register", err)
	}
	return toStruct(map[string]string{"message": "User registered successfully"})
}

// Login exchanges {username, password} for {token}.
func (s *ContentServer) Login(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	username, err := stringField(in, "username")
	if err != nil {
		return nil, err
	}
	password, err := stringField(in, "password")
	if err != nil {
		return nil, err
	}
	tok, err := s.Accounts.Login(ctx, username, password)
	if err != nil {
		return nil, s.toStatus(ctx, "Login", err)
	}
	return toStruct(map[string]string{"token": tok})
}

// Protected echoes the caller's identity; the interceptor has already
// verified the token.
func (s *ContentServer) Protected(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	p, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{
		"message":  "Protected route accessed successfully",
		"username": p.Username,
		"isAdmin":  p.IsAdmin,
	})
}

func (s *ContentServer) ListArticles(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	articles, err := s.Articles.List(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, "ListArticles", err)
	}
	b, err := json.Marshal(articles)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode articles: %v", err)
	}
	out := &structpb.ListValue{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode articles: %v", err)
	}
	return out, nil
}

func (s *ContentServer) GetArticle(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := idField(in)
	if err != nil {
		return nil, err
	}
	a, err := s.Articles.Get(ctx, id)
	if err != nil {
		return nil, s.toStatus(ctx, "GetArticle", err)
	}
	return toStruct(a)
}

func (s *ContentServer) CreateArticle(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	title, err := rawField(in, "title")
	if err != nil {
		return nil, err
	}
	content, err := rawField(in, "content")
	if err != nil {
		return nil, err
	}
	a, err := s.Articles.Create(ctx, title, content)
	if err != nil {
		return nil, s.toStatus(ctx, "CreateArticle", err)
	}
	return toStruct(a)
}

func (s *ContentServer) UpdateArticle(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := idField(in)
	if err != nil {
		return nil, err
	}
	title, err := rawField(in, "title")
	if err != nil {
		return nil, err
	}
	content, err := rawField(in, "content")
	if err != nil {
		return nil, err
	}
	a, err := s.Articles.Update(ctx, id, title, content)
	if err != nil {
		return nil, s.toStatus(ctx, "UpdateArticle", err)
	}
	return toStruct(a)
}

func (s *ContentServer) DeleteArticle(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := idField(in)
	if err != nil {
		return nil, err
	}
	a, err := s.Articles.Delete(ctx, id)
	if err != nil {
		return nil, s.toStatus(ctx, "DeleteArticle", err)
	}
	return toStruct(a)
}

// toStatus maps service errors onto gRPC codes. Unrecognised errors are
// logged and reported as Internal.
func (s *ContentServer) toStatus(ctx context.Context, method string, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return status.Error(codes.NotFound, "Article not found")
	case errors.Is(err, service.ErrDuplicateUsername):
		return status.Error(codes.InvalidArgument, "Username already exists")
	case service.IsValidation(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, "Invalid username or password")
	}
	s.logger().ErrorContext(ctx, "rpc failed", "method", method, "error", err)
	return status.Error(codes.Internal, "internal error")
}

func (s *ContentServer) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// toStruct converts a JSON-encodable value into a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// stringField returns in[key] as a string; absent and null read as "".
func stringField(in *structpb.Struct, key string) (string, error) {
	v, ok := in.GetFields()[key]
	if !ok {
		return "", nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return "", nil
	case *structpb.Value_StringValue:
		return k.StringValue, nil
	}
	return "", status.Errorf(codes.InvalidArgument, "%s must be a string", key)
}

// rawField returns in[key] as JSON; an absent key is nil.
func rawField(in *structpb.Struct, key string) (json.RawMessage, error) {
	v, ok := in.GetFields()[key]
	if !ok {
		return nil, nil
	}
	b, err := protojson.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%s: %v", key, err)
	}
	return b, nil
}

// idField returns the article id in its textual form, accepting a number or
// a string; the article service normalizes it.
func idField(in *structpb.Struct) (string, error) {
	v, ok := in.GetFields()["id"]
	if !ok {
		return "", nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return "", nil
	case *structpb.Value_StringValue:
		return k.StringValue, nil
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(k.NumberValue, 'f', -1, 64), nil
	}
	return "", status.Error(codes.InvalidArgument, "id must be a number or a string")
}
