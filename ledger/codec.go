package ledger

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// DecodeLog decodes log against contract. ok is false when the log's
// signature is not an event of contract.
func DecodeLog(contract *abi.ABI, log *types.Log) (ev Event, ok bool, err error) {
	if contract == nil || log == nil || len(log.Topics) == 0 {
		return Event{}, false, nil
	}
	desc, err := contract.EventByID(log.Topics[0])
	if err != nil {
		return Event{}, false, nil
	}

	nonIndexed, err := desc.Inputs.Unpack(log.Data)
	if err != nil {
		return Event{}, true, fmt.Errorf("decode %s data: %w", desc.Name, err)
	}

	var indexed abi.Arguments
	for _, in := range desc.Inputs {
		if in.Indexed {
			indexed = append(indexed, in)
		}
	}
	topics := make(map[string]any, len(indexed))
	if err := abi.ParseTopicsIntoMap(topics, indexed, log.Topics[1:]); err != nil {
		return Event{}, true, fmt.Errorf("decode %s topics: %w", desc.Name, err)
	}

	values := make([]any, 0, len(desc.Inputs))
	next := 0
	for _, in := range desc.Inputs {
		if in.Indexed {
			values = append(values, topics[in.Name])
			continue
		}
		values = append(values, nonIndexed[next])
		next++
	}

	return Event{
		Name:        desc.Name,
		Address:     log.Address,
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash,
		LogIndex:    log.Index,
		Values:      values,
	}, true, nil
}

// DecodeReceiptLogs groups the logs emitted by the contract at emitter that
// decode against contract by event name. Logs from other addresses touched
// by the same transaction are skipped even when their topics match.
func DecodeReceiptLogs(contract *abi.ABI, emitter common.Address, logs []*types.Log) (map[string][]Event, error) {
	events := make(map[string][]Event)
	for _, l := range logs {
		if l == nil || l.Address != emitter {
			continue
		}
		ev, ok, err := DecodeLog(contract, l)
		if err != nil {
			return nil, err
		}
		if ok {
			events[ev.Name] = append(events[ev.Name], ev)
		}
	}
	return events, nil
}

// EncodeEvent builds the log emitted by event name of contract. values holds
// every input in declaration order.
func EncodeEvent(contract *abi.ABI, name string, address common.Address, values ...any) (*types.Log, error) {
	desc, ok := contract.Events[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown event %s", ErrInvalidRequest, name)
	}
	if len(values) != len(desc.Inputs) {
		return nil, fmt.Errorf("%w: %s takes %d values, got %d", ErrInvalidRequest, name, len(desc.Inputs), len(values))
	}

	var (
		query [][]any
		data  []any
	)
	for i, in := range desc.Inputs {
		if in.Indexed {
			query = append(query, []any{topicValue(values[i])})
		} else {
			data = append(data, values[i])
		}
	}

	topics := []common.Hash{desc.ID}
	if len(query) > 0 {
		rules, err := abi.MakeTopics(query...)
		if err != nil {
			return nil, fmt.Errorf("encode %s topics: %w", name, err)
		}
		for _, r := range rules {
			topics = append(topics, r[0])
		}
	}

	packed, err := desc.Inputs.NonIndexed().Pack(data...)
	if err != nil {
		return nil, fmt.Errorf("encode %s data: %w", name, err)
	}
	return &types.Log{Address: address, Topics: topics, Data: packed}, nil
}

// Topics returns the topic filter selecting q's event and indexed values.
func Topics(q EventQuery) ([][]common.Hash, error) {
	desc, ok := q.ABI.Events[q.Event]
	if !ok {
		return nil, fmt.Errorf("%w: unknown event %s", ErrInvalidRequest, q.Event)
	}
	filter := [][]common.Hash{{desc.ID}}
	if len(q.Indexed) == 0 {
		return filter, nil
	}
	query := make([][]any, len(q.Indexed))
	for i, rule := range q.Indexed {
		query[i] = make([]any, len(rule))
		for j, v := range rule {
			query[i][j] = topicValue(v)
		}
	}
	rules, err := abi.MakeTopics(query...)
	if err != nil {
		return nil, fmt.Errorf("encode %s filter: %w", q.Event, err)
	}
	return append(filter, rules...), nil
}

// MatchTopics reports whether topics satisfy filter, using eth_getLogs rules.
func MatchTopics(topics []common.Hash, filter [][]common.Hash) bool {
	if len(filter) > len(topics) {
		return false
	}
	for i, alternatives := range filter {
		if len(alternatives) == 0 {
			continue
		}
		matched := false
		for _, want := range alternatives {
			if topics[i] == want {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func topicValue(v any) any {
	if b, ok := v.([32]byte); ok {
		return common.Hash(b)
	}
	return v
}
