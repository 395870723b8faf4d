// SPDX-License-Identifier: Apache-2.0

package readers

import (
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/qpproj/projectio/internal/manifest"
)

// currentSchema describes the fields the versioned layout requires. Structs
// stay open so newer writers can add fields without breaking older readers.
const currentSchema = `
#Image: {
	entryID:      int & >=1
	serverPath:   string & !=""
	imageName?:   string
	description?: string
	metadata?: [string]: string
	data?: _
	...
}

#Project: {
	version:          _
	name:             string & =~"\\S"
	id?:              string
	description?:     string
	createTimestamp?: int & >=0
	modifyTimestamp?: int & >=0
	lastID?:          int & >=0
	images?: [...#Image]
	...
}
`

// schemaValidator checks generic payloads against currentSchema. A
// cue.Context is not safe for concurrent use, hence the mutex.
type schemaValidator struct {
	mu      sync.Mutex
	ctx     *cue.Context
	project cue.Value
}

func newSchemaValidator() (*schemaValidator, error) {
	ctx := cuecontext.New()
	compiled := ctx.CompileString(currentSchema)
	if err := compiled.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile manifest schema: %w", err)
	}
	def := compiled.LookupPath(cue.ParsePath("#Project"))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("manifest schema has no #Project: %w", err)
	}
	return &schemaValidator{ctx: ctx, project: def}, nil
}

func (s *schemaValidator) Validate(payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	value := s.ctx.Encode(payload)
	if err := value.Err(); err != nil {
		return fmt.Errorf("%w: %v", manifest.ErrSchemaViolation, err)
	}
	if err := s.project.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %v", manifest.ErrSchemaViolation, err)
	}
	return nil
}

var (
	sharedSchemaOnce sync.Once
	sharedSchema     *schemaValidator
	sharedSchemaErr  error
)

func defaultSchema() (*schemaValidator, error) {
	sharedSchemaOnce.Do(func() {
		sharedSchema, sharedSchemaErr = newSchemaValidator()
	})
	return sharedSchema, sharedSchemaErr
}
