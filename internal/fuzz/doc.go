// Package fuzztests houses Go fuzz harnesses for the document pipeline
// (text -> parser -> checks -> fixes). Their goal is to guard against panics,
// hangs and malformed spans on arbitrary input.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
package fuzztests
