package vectorstore

import (
	"strconv"

	"github.com/qdrant/go-client/qdrant"
)

// pointID maps a record id onto a Qdrant point id: decimal strings become numeric ids,
// anything else is sent as a UUID.
func pointID(id string) *qdrant.PointId {
	if n, err := strconv.ParseUint(id, 10, 64); err == nil {
		return qdrant.NewIDNum(n)
	}

	return qdrant.NewID(id)
}

func pointIDString(id *qdrant.PointId) string {
	switch v := id.GetPointIdOptions().(type) {
	case *qdrant.PointId_Num:
		return strconv.FormatUint(v.Num, 10)
	case *qdrant.PointId_Uuid:
		return v.Uuid
	default:
		return ""
	}
}

func payloadFromQdrant(payload map[string]*qdrant.Value) map[string]any {
	if len(payload) == 0 {
		return nil
	}

	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = valueFromQdrant(v)
	}

	return out
}

func valueFromQdrant(v *qdrant.Value) any {
	switch k := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return k.StringValue
	case *qdrant.Value_IntegerValue:
		return k.IntegerValue
	case *qdrant.Value_DoubleValue:
		return k.DoubleValue
	case *qdrant.Value_BoolValue:
		return k.BoolValue
	case *qdrant.Value_StructValue:
		return payloadFromQdrant(k.StructValue.GetFields())
	case *qdrant.Value_ListValue:
		values := k.ListValue.GetValues()
		list := make([]any, len(values))

		for i, item := range values {
			list[i] = valueFromQdrant(item)
		}

		return list
	default:
		return nil
	}
}
