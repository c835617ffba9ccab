// Package wfadapter turns workflow exports into normalized entities.
package wfadapter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jgivc/autodocs/internal/common"
	"github.com/jgivc/autodocs/internal/entity"
)

const (
	keyName        = "name"
	keyNodes       = "nodes"
	keyConnections = "connections"
	keyID          = "id"
	keyType        = "type"
	keyDisplayName = "displayName"
	keyParameters  = "parameters"
	keyPosition    = "position"
	keyCredentials = "credentials"

	fallbackNodeKey = "node"
)

// Parse decodes a workflow export, normalizes it and strips node
// credentials. Credential usage is reported in the returned Meta.
func Parse(data []byte) (*entity.Workflow, *entity.Meta, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var parsed any
	if err := dec.Decode(&parsed); err != nil {
		return nil, nil, fmt.Errorf("%w: invalid JSON: %w", common.ErrInvalidWorkflow, err)
	}

	if dec.More() {
		return nil, nil, fmt.Errorf("%w: invalid JSON: trailing data", common.ErrInvalidWorkflow)
	}

	doc, ok := parsed.(map[string]any)
	if !ok {
		return nil, nil, fmt.Errorf("%w: expected an object", common.ErrInvalidWorkflow)
	}

	wf := normalize(doc)
	meta := collectCredentials(wf)

	for _, n := range nodeMaps(wf.Doc) {
		delete(n, keyCredentials)
	}

	meta.Title = wf.Name
	if meta.Title == "" {
		meta.Title = entity.DefaultTitle
	}

	return wf, meta, nil
}

// Encode returns the workflow document as indented JSON.
func Encode(wf *entity.Workflow) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(wf.Doc); err != nil {
		return nil, fmt.Errorf("cannot encode workflow: %w", err)
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func normalize(src map[string]any) *entity.Workflow {
	doc := make(map[string]any, len(src))
	for k, v := range src {
		doc[k] = v
	}

	name, ok := doc[keyName].(string)
	if !ok {
		name = entity.DefaultWorkflowName
	}
	doc[keyName] = name

	var nodes []any
	if raw, ok := doc[keyNodes].([]any); ok {
		nodes = make([]any, 0, len(raw))
		for _, n := range raw {
			nodes = append(nodes, normalizeNode(n))
		}
	} else {
		nodes = []any{}
	}
	doc[keyNodes] = nodes

	connections, ok := doc[keyConnections].(map[string]any)
	if !ok {
		connections = map[string]any{}
	}
	doc[keyConnections] = connections

	wf := &entity.Workflow{
		Name:        name,
		Nodes:       make([]entity.Node, 0, len(nodes)),
		Connections: connections,
		Doc:         doc,
	}

	for _, n := range nodeMaps(doc) {
		node := entity.Node{
			ID:   stringify(n[keyID]),
			Name: n[keyName].(string),
			Type: n[keyType].(string),
		}
		node.DisplayName, _ = n[keyDisplayName].(string)

		wf.Nodes = append(wf.Nodes, node)
	}

	return wf
}

func normalizeNode(v any) map[string]any {
	node := make(map[string]any)
	if src, ok := v.(map[string]any); ok {
		for k, val := range src {
			node[k] = val
		}
	}

	if node[keyID] == nil {
		if node[keyName] != nil {
			node[keyID] = node[keyName]
		} else {
			node[keyID] = uuid.NewString()
		}
	}

	if _, ok := node[keyName].(string); !ok {
		node[keyName] = stringify(node[keyID])
	}

	if _, ok := node[keyType].(string); !ok {
		node[keyType] = entity.UnknownNodeType
	}

	switch node[keyParameters].(type) {
	case map[string]any, []any:
	default:
		node[keyParameters] = map[string]any{}
	}

	if _, ok := node[keyPosition].([]any); !ok {
		node[keyPosition] = []any{json.Number("0"), json.Number("0")}
	}

	return node
}

func collectCredentials(wf *entity.Workflow) *entity.Meta {
	names := make(map[string]struct{})
	byCredential := make(map[string]map[string]struct{})
	byNode := make(map[string]map[string]struct{})

	for _, n := range nodeMaps(wf.Doc) {
		creds, ok := n[keyCredentials].(map[string]any)
		if !ok {
			continue
		}

		nodeName, _ := n[keyName].(string)
		nodeID := stringify(n[keyID])

		for key, value := range creds {
			if key == "" {
				continue
			}

			resolved := credentialName(value)
			if resolved == "" {
				resolved = key
			}
			names[resolved] = struct{}{}

			addToSet(byCredential, resolved, firstNonEmpty(nodeName, nodeID, key))
			addToSet(byNode, firstNonEmpty(nodeName, nodeID, fallbackNodeKey), resolved)
		}
	}

	return &entity.Meta{
		CredentialNames: sortedKeys(names),
		CredentialUsage: flattenSets(byCredential),
		NodeCredentials: flattenSets(byNode),
	}
}

func credentialName(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return ""
	}

	if id, ok := m[keyID].(string); ok {
		return id
	}

	if name, ok := m[keyName].(string); ok {
		return name
	}

	return ""
}

func nodeMaps(doc map[string]any) []map[string]any {
	nodes, _ := doc[keyNodes].([]any)

	res := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		if m, ok := n.(map[string]any); ok {
			res = append(res, m)
		}
	}

	return res
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return fmt.Sprint(val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}

		return string(data)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}

func addToSet(m map[string]map[string]struct{}, key, value string) {
	set, ok := m[key]
	if !ok {
		set = make(map[string]struct{})
		m[key] = set
	}

	set[value] = struct{}{}
}

func flattenSets(m map[string]map[string]struct{}) map[string][]string {
	res := make(map[string][]string, len(m))
	for k, set := range m {
		res[k] = sortedKeys(set)
	}

	return res
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}
