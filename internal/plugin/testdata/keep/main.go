//go:build tinygo

// Keeps texts whose first pattern matched, or that contain an ERR code found
// through the regex_search host function. The text "explode" is reported as
// a plugin error.
package main

import (
	"encoding/json"
	"unsafe"
)

var heapPtr uintptr = 0x20000

//export abi_version
func abiVersion() uint32 {
	return 1
}

//export alloc
func alloc(size uint32) uint32 {
	ptr := uint32(heapPtr)
	heapPtr += uintptr(size)
	return ptr
}

//export free
func free(ptr, size uint32) {}

//go:wasm-module env
//export regex_search
func regexSearch(strPtr, strLen, rePtr, reLen, outPtr, outLen uint32) uint32

//go:wasm-module env
//export log
func hostLog(level, ptr, msgLen uint32)

func ptrOf(s string) uint32 {
	return uint32(uintptr(unsafe.Pointer(unsafe.StringData(s))))
}

//export select
func selectRow(inputPtr, inputLen uint32) uint64 {
	in := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(inputPtr))), inputLen)

	var input struct {
		Index int       `json:"index"`
		Text  string    `json:"text"`
		Row   []*string `json:"row"`
	}
	if err := json.Unmarshal(in, &input); err != nil {
		return respond(`{"ok":false,"error":"bad input","code":"EINPUT"}`)
	}
	if input.Text == "explode" {
		return respond(`{"ok":false,"error":"refused","code":"EREFUSED"}`)
	}
	if len(input.Row) > 0 && input.Row[0] != nil {
		return respond(`{"ok":true,"keep":true}`)
	}

	pattern := `ERR\d+`
	var buf [64]byte
	n := regexSearch(ptrOf(input.Text), uint32(len(input.Text)), ptrOf(pattern), uint32(len(pattern)),
		uint32(uintptr(unsafe.Pointer(&buf[0]))), uint32(len(buf)))
	if n == 0xFFFFFFFF || n == 0xFFFFFFFE {
		return respond(`{"ok":true,"keep":false}`)
	}

	msg := "found " + string(buf[:n])
	hostLog(1, ptrOf(msg), uint32(len(msg)))
	return respond(`{"ok":true,"keep":true}`)
}

func respond(out string) uint64 {
	ptr := alloc(uint32(len(out)))
	copy(unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), len(out)), out)
	return (uint64(len(out)) << 32) | uint64(ptr)
}

func main() {}
