// Package api provides the gRPC transform service.
package api

import (
	"context"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/keyshift/internal/core/auth"
	"github.com/solatis/keyshift/internal/core/config"
	"github.com/solatis/keyshift/internal/core/store"
	"github.com/solatis/keyshift/internal/log"
	"github.com/solatis/keyshift/internal/rules"
	"github.com/solatis/keyshift/internal/types"
)

// MappingStore is the subset of *store.MappingStore the service needs.
type MappingStore interface {
	Put(ctx context.Context, mapping *types.Mapping) (types.MappingID, error)
	Get(ctx context.Context, name string) (*store.StoredMapping, error)
	List(ctx context.Context) ([]*store.StoredMapping, error)
	Delete(ctx context.Context, name string) error
}

var _ MappingStore = (*store.MappingStore)(nil)

// TransformService implements TransformServer.
// Thin orchestration layer delegating to the rules engine and the store.
type TransformService struct {
	engine *rules.Engine
	store  MappingStore
	cfg    *config.Config
	logger log.Logger
}

var _ TransformServer = (*TransformService)(nil)

// NewTransformService creates the service. store may be nil, in which case
// only inline rule sets are accepted.
func NewTransformService(engine *rules.Engine, store MappingStore, cfg *config.Config, logger log.Logger) (*TransformService, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	return &TransformService{
		engine: engine,
		store:  store,
		cfg:    cfg,
		logger: log.NewLogger(logger).WithFields(log.Fields{log.ModuleField: "api"}),
	}, nil
}

// Transform applies a stored ("mapping") or inline ("rules") rule set to
// "source", or to each document in "sources".
func (s *TransformService) Transform(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()

	mapping, err := s.requestMapping(ctx, fields)
	if err != nil {
		return nil, err
	}
	compiled, err := rules.Compile(mapping)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid mapping: %v", err)
	}

	if batch, ok := fields[fieldSources]; ok {
		return s.transformBatch(ctx, compiled, batch)
	}

	source := fields[fieldSource].GetStructValue()
	if source == nil {
		return nil, status.Errorf(codes.InvalidArgument, "%q must be an object", fieldSource)
	}
	doc, err := structToDocument(source)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid source: %v", err)
	}

	result, err := documentToStruct(s.engine.Execute(compiled, doc))
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldResult: structpb.NewStructValue(result),
	}}, nil
}

func (s *TransformService) transformBatch(ctx context.Context, compiled *rules.CompiledMapping, batch *structpb.Value) (*structpb.Struct, error) {
	list := batch.GetListValue()
	if list == nil {
		return nil, status.Errorf(codes.InvalidArgument, "%q must be a list of objects", fieldSources)
	}
	if n := len(list.GetValues()); n > s.cfg.Server.MaxBatchSize {
		return nil, status.Errorf(codes.InvalidArgument, "batch of %d exceeds max_batch_size %d", n, s.cfg.Server.MaxBatchSize)
	}

	results := make([]*structpb.Value, 0, len(list.GetValues()))
	for i, v := range list.GetValues() {
		if err := ctx.Err(); err != nil {
			return nil, status.FromContextError(err).Err()
		}
		source := v.GetStructValue()
		if source == nil {
			return nil, status.Errorf(codes.InvalidArgument, "%s[%d] must be an object", fieldSources, i)
		}
		doc, err := structToDocument(source)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "%s[%d]: %v", fieldSources, i, err)
		}
		result, err := documentToStruct(s.engine.Execute(compiled, doc))
		if err != nil {
			return nil, status.Error(codes.Internal, err.Error())
		}
		results = append(results, structpb.NewStructValue(result))
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldResults: structpb.NewListValue(&structpb.ListValue{Values: results}),
	}}, nil
}

// requestMapping resolves the rule set named by a Transform request.
// Exactly one of "mapping" and "rules" must be present; "copy_source"
// overrides the mapping's own setting.
func (s *TransformService) requestMapping(ctx context.Context, fields map[string]*structpb.Value) (*types.Mapping, error) {
	nameValue, hasName := fields[fieldMapping]
	rulesValue, hasRules := fields[fieldRules]
	if hasName == hasRules {
		return nil, status.Errorf(codes.InvalidArgument, "exactly one of %q or %q is required", fieldMapping, fieldRules)
	}

	var mapping *types.Mapping
	if hasName {
		stored, err := s.lookup(ctx, nameValue.GetStringValue())
		if err != nil {
			return nil, err
		}
		mapping = &stored.Mapping
	} else {
		decoded, err := decodeMapping(map[string]any{fieldRules: rulesValue.AsInterface()})
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		decoded.CopySource = s.cfg.Transform.CopySource
		mapping = decoded
	}

	if v, ok := fields[fieldCopySource]; ok {
		b, isBool := v.GetKind().(*structpb.Value_BoolValue)
		if !isBool {
			return nil, status.Errorf(codes.InvalidArgument, "%q must be a boolean", fieldCopySource)
		}
		mapping.CopySource = b.BoolValue
	}
	return mapping, nil
}

// PutMapping stores {"name", "copy_source", "rules"} and returns
// {"mapping_id"}.
func (s *TransformService) PutMapping(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	mapping, err := decodeMapping(req.AsMap())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if mapping.ID != "" {
		if _, err := types.ParseMappingID(string(mapping.ID)); err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid mapping_id: %v", err)
		}
	}

	id, err := s.store.Put(ctx, mapping)
	if err != nil {
		return nil, storeError(err)
	}

	fields := log.Fields{"mapping": mapping.Name, "mapping_id": string(id), "rules": len(mapping.Rules)}
	if client := auth.ClientFromContext(ctx); client != nil {
		fields["client"] = client.Name
	}
	s.logger.Info("mapping stored", fields)

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldMappingID: structpb.NewStringValue(string(id)),
		fieldName:      structpb.NewStringValue(mapping.Name),
		fieldRuleCount: structpb.NewNumberValue(float64(len(mapping.Rules))),
	}}, nil
}

// GetMapping returns the full definition stored under {"name"}.
func (s *TransformService) GetMapping(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	stored, err := s.lookup(ctx, req.GetFields()[fieldName].GetStringValue())
	if err != nil {
		return nil, err
	}
	out, err := structpb.NewStruct(mappingToMap(stored, true))
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// DeleteMapping removes the mapping stored under {"name"}.
func (s *TransformService) DeleteMapping(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	name := req.GetFields()[fieldName].GetStringValue()
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, types.ErrEmptyMappingName.Error())
	}
	if err := s.store.Delete(ctx, name); err != nil {
		return nil, storeError(err)
	}
	s.logger.Info("mapping deleted", log.Fields{"mapping": name})
	return &emptypb.Empty{}, nil
}

// ListMappings returns {"mappings": [...]} without rule bodies.
func (s *TransformService) ListMappings(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	stored, err := s.store.List(ctx)
	if err != nil {
		return nil, storeError(err)
	}

	list := make([]any, len(stored))
	for i, m := range stored {
		list[i] = mappingToMap(m, false)
	}
	out, err := structpb.NewStruct(map[string]any{fieldMappings: list})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (s *TransformService) lookup(ctx context.Context, name string) (*store.StoredMapping, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, types.ErrEmptyMappingName.Error())
	}
	stored, err := s.store.Get(ctx, name)
	if err != nil {
		return nil, storeError(err)
	}
	return stored, nil
}

func (s *TransformService) requireStore() error {
	if s.store == nil {
		return status.Error(codes.FailedPrecondition, "mapping store not configured")
	}
	return nil
}
