package solana

import (
	"encoding/json"
)

// LamportsPerSOL количество лампортов в одном SOL
const LamportsPerSOL = 1_000_000_000

// systemProgram имя системной программы в jsonParsed-кодировке
const systemProgram = "system"

// instructionTransfer тип инструкции нативного перевода
const instructionTransfer = "transfer"

// Transaction подтвержденная транзакция, как ее возвращает getTransaction
type Transaction struct {
	Slot        uint64             `json:"slot"`
	BlockTime   *int64             `json:"blockTime"`
	Meta        *Meta              `json:"meta"`
	Transaction TransactionPayload `json:"transaction"`
}

// Meta метаданные исполнения транзакции
type Meta struct {
	Err          json.RawMessage `json:"err"`
	Fee          uint64          `json:"fee"`
	PreBalances  []uint64        `json:"preBalances"`
	PostBalances []uint64        `json:"postBalances"`
}

// Failed сообщает, завершилась ли транзакция ошибкой в блокчейне
func (m *Meta) Failed() bool {
	return len(m.Err) > 0 && string(m.Err) != "null"
}

// TransactionPayload тело транзакции
type TransactionPayload struct {
	Message Message `json:"message"`
}

// Message сообщение транзакции с инструкциями
type Message struct {
	AccountKeys  []AccountKey  `json:"accountKeys"`
	Instructions []Instruction `json:"instructions"`
}

// AccountKey аккаунт, участвующий в транзакции
type AccountKey struct {
	Pubkey string `json:"pubkey"`
	Signer bool   `json:"signer"`
}

// Instruction инструкция транзакции в jsonParsed-кодировке
type Instruction struct {
	Program   string             `json:"program"`
	ProgramID string             `json:"programId"`
	Parsed    *ParsedInstruction `json:"parsed"`
}

// ParsedInstruction разобранная инструкция
type ParsedInstruction struct {
	Type string       `json:"type"`
	Info TransferInfo `json:"info"`
}

// TransferInfo параметры нативного перевода
type TransferInfo struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Lamports    uint64 `json:"lamports"`
}

// TransferTo ищет в транзакции инструкцию нативного перевода на указанный
// кошелек. Возвращает false, если такой инструкции нет.
func (t *Transaction) TransferTo(recipient string) (TransferInfo, bool) {
	for _, ins := range t.Transaction.Message.Instructions {
		if ins.Program != systemProgram || ins.Parsed == nil {
			continue
		}
		if ins.Parsed.Type != instructionTransfer {
			continue
		}
		if ins.Parsed.Info.Destination == recipient {
			return ins.Parsed.Info, true
		}
	}
	return TransferInfo{}, false
}

// PayerBalanceDeltaSOL возвращает изменение баланса плательщика в SOL по
// pre/post балансам. Дельта включает комиссию сети; допуск проверки суммы
// ее поглощает.
func (t *Transaction) PayerBalanceDeltaSOL() float64 {
	if t.Meta == nil || len(t.Meta.PreBalances) == 0 || len(t.Meta.PostBalances) == 0 {
		return 0
	}

	pre := t.Meta.PreBalances[0]
	post := t.Meta.PostBalances[0]
	if post > pre {
		return 0
	}
	return float64(pre-post) / LamportsPerSOL
}
