// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package kdb

// Field ids, per spec.md §4.4.
const (
	fieldEnd uint16 = 0xFFFF

	groupFieldComment    uint16 = 0x0000
	groupFieldID         uint16 = 0x0001
	groupFieldName       uint16 = 0x0002
	groupFieldCreated    uint16 = 0x0003
	groupFieldLastMod    uint16 = 0x0004
	groupFieldLastAccess uint16 = 0x0005
	groupFieldExpires    uint16 = 0x0006
	groupFieldIcon       uint16 = 0x0007
	groupFieldLevel      uint16 = 0x0008
	groupFieldFlags      uint16 = 0x0009

	entryFieldUUID       uint16 = 0x0001
	entryFieldGroupID    uint16 = 0x0002
	entryFieldIcon       uint16 = 0x0003
	entryFieldTitle      uint16 = 0x0004
	entryFieldURL        uint16 = 0x0005
	entryFieldUsername   uint16 = 0x0006
	entryFieldPassword   uint16 = 0x0007
	entryFieldNotes      uint16 = 0x0008
	entryFieldCreated    uint16 = 0x0009
	entryFieldLastMod    uint16 = 0x000A
	entryFieldLastAccess uint16 = 0x000B
	entryFieldExpires    uint16 = 0x000C
	entryFieldBinDesc    uint16 = 0x000D
	entryFieldBinData    uint16 = 0x000E
)

// readFieldHeader reads the (id, length) tuple preceding a field's data.
func readFieldHeader(r *Reader) (id uint16, length uint32, err error) {
	if id, err = r.ReadU16(); err != nil {
		return 0, 0, err
	}
	if length, err = r.ReadU32(); err != nil {
		return 0, 0, err
	}
	return id, length, nil
}

// ParseGroup parses one group record: a sequence of fields terminated by
// id=0xFFFF. Unknown ids are skipped (forward compatibility); duplicate
// fields overwrite earlier ones (last writer wins); a missing group id
// fails with CorruptedField, per spec.md §4.4.
func ParseGroup(r *Reader) (*Group, error) {
	g := &Group{}
	haveID := false
	for {
		id, length, err := readFieldHeader(r)
		if err != nil {
			return nil, err
		}
		if id == fieldEnd {
			break
		}
		switch id {
		case groupFieldComment:
			if _, err := r.ReadBlob(int(length)); err != nil {
				return nil, err
			}
		case groupFieldID:
			v, err := r.ReadI32()
			if err != nil {
				return nil, newFieldErr("group.id", err)
			}
			g.ID = v
			haveID = true
		case groupFieldName:
			v, err := r.ReadString(int(length))
			if err != nil {
				return nil, newFieldErr("group.name", err)
			}
			g.Name = v
		case groupFieldCreated:
			v, err := r.ReadTimestamp()
			if err != nil {
				return nil, newFieldErr("group.created", err)
			}
			g.Created = v
		case groupFieldLastMod:
			v, err := r.ReadTimestamp()
			if err != nil {
				return nil, newFieldErr("group.lastMod", err)
			}
			g.LastMod = v
		case groupFieldLastAccess:
			v, err := r.ReadTimestamp()
			if err != nil {
				return nil, newFieldErr("group.lastAccess", err)
			}
			g.LastAccess = v
		case groupFieldExpires:
			v, err := r.ReadTimestamp()
			if err != nil {
				return nil, newFieldErr("group.expires", err)
			}
			g.Expires = v
		case groupFieldIcon:
			v, err := r.ReadU32()
			if err != nil {
				return nil, newFieldErr("group.icon", err)
			}
			g.IconID = v
		case groupFieldLevel:
			v, err := r.ReadU16()
			if err != nil {
				return nil, newFieldErr("group.level", err)
			}
			g.Level = v
		case groupFieldFlags:
			v, err := r.ReadU32()
			if err != nil {
				return nil, newFieldErr("group.flags", err)
			}
			g.Flags = v
		default:
			if _, err := r.ReadBlob(int(length)); err != nil {
				return nil, err
			}
		}
	}
	if !haveID {
		return nil, newFieldErr("group.id", nil)
	}
	return g, nil
}

// SerializeGroup emits a group record in field-id order, terminated by the
// 0xFFFF sentinel.
func SerializeGroup(w *Writer, g *Group) {
	w.WriteU16(groupFieldID)
	w.WriteU32(4)
	w.WriteI32(g.ID)

	w.WriteU16(groupFieldName)
	w.WriteU32(NulStringLen(g.Name))
	w.WriteNulString(g.Name)

	w.WriteU16(groupFieldCreated)
	w.WriteU32(5)
	w.WriteTimestamp(g.Created)

	w.WriteU16(groupFieldLastMod)
	w.WriteU32(5)
	w.WriteTimestamp(g.LastMod)

	w.WriteU16(groupFieldLastAccess)
	w.WriteU32(5)
	w.WriteTimestamp(g.LastAccess)

	w.WriteU16(groupFieldExpires)
	w.WriteU32(5)
	w.WriteTimestamp(g.Expires)

	w.WriteU16(groupFieldIcon)
	w.WriteU32(4)
	w.WriteU32(g.IconID)

	w.WriteU16(groupFieldLevel)
	w.WriteU32(2)
	w.WriteU16(g.Level)

	w.WriteU16(groupFieldFlags)
	w.WriteU32(4)
	w.WriteU32(g.Flags)

	w.WriteU16(fieldEnd)
	w.WriteU32(0)
}

// ParseEntry parses one entry record. A missing UUID fails with
// CorruptedField, per spec.md §4.4.
func ParseEntry(r *Reader) (*Entry, error) {
	e := &Entry{}
	haveUUID := false
	var binDesc string
	var binData []byte
	haveBinDesc, haveBinData := false, false

	for {
		id, length, err := readFieldHeader(r)
		if err != nil {
			return nil, err
		}
		if id == fieldEnd {
			break
		}
		switch id {
		case entryFieldUUID:
			v, err := r.ReadUUID()
			if err != nil {
				return nil, newFieldErr("entry.uuid", err)
			}
			e.UUID = v
			haveUUID = true
		case entryFieldGroupID:
			v, err := r.ReadU32()
			if err != nil {
				return nil, newFieldErr("entry.groupId", err)
			}
			e.GroupID = v
		case entryFieldIcon:
			v, err := r.ReadU32()
			if err != nil {
				return nil, newFieldErr("entry.icon", err)
			}
			e.IconID = v
		case entryFieldTitle:
			v, err := r.ReadString(int(length))
			if err != nil {
				return nil, newFieldErr("entry.title", err)
			}
			e.Title = v
		case entryFieldURL:
			v, err := r.ReadString(int(length))
			if err != nil {
				return nil, newFieldErr("entry.url", err)
			}
			e.URL = v
		case entryFieldUsername:
			v, err := r.ReadString(int(length))
			if err != nil {
				return nil, newFieldErr("entry.username", err)
			}
			e.Username = v
		case entryFieldPassword:
			v, err := r.ReadString(int(length))
			if err != nil {
				return nil, newFieldErr("entry.password", err)
			}
			e.Password = v
		case entryFieldNotes:
			v, err := r.ReadString(int(length))
			if err != nil {
				return nil, newFieldErr("entry.notes", err)
			}
			e.Notes = v
		case entryFieldCreated:
			v, err := r.ReadTimestamp()
			if err != nil {
				return nil, newFieldErr("entry.created", err)
			}
			e.Created = v
		case entryFieldLastMod:
			v, err := r.ReadTimestamp()
			if err != nil {
				return nil, newFieldErr("entry.lastMod", err)
			}
			e.LastMod = v
		case entryFieldLastAccess:
			v, err := r.ReadTimestamp()
			if err != nil {
				return nil, newFieldErr("entry.lastAccess", err)
			}
			e.LastAccess = v
		case entryFieldExpires:
			v, err := r.ReadTimestamp()
			if err != nil {
				return nil, newFieldErr("entry.expires", err)
			}
			e.Expires = v
		case entryFieldBinDesc:
			v, err := r.ReadString(int(length))
			if err != nil {
				return nil, newFieldErr("entry.binDesc", err)
			}
			binDesc = v
			haveBinDesc = true
		case entryFieldBinData:
			v, err := r.ReadBlob(int(length))
			if err != nil {
				return nil, newFieldErr("entry.binData", err)
			}
			binData = v
			haveBinData = true
		default:
			if _, err := r.ReadBlob(int(length)); err != nil {
				return nil, err
			}
		}
	}
	if !haveUUID {
		return nil, newFieldErr("entry.uuid", nil)
	}
	if haveBinDesc || haveBinData {
		e.Attachment = &Attachment{Name: binDesc, Data: binData}
	}
	return e, nil
}

// SerializeEntry emits an entry record in field-id order, terminated by
// the 0xFFFF sentinel.
func SerializeEntry(w *Writer, e *Entry) {
	w.WriteU16(entryFieldUUID)
	w.WriteU32(16)
	w.WriteUUID(e.UUID)

	w.WriteU16(entryFieldGroupID)
	w.WriteU32(4)
	w.WriteU32(e.GroupID)

	w.WriteU16(entryFieldIcon)
	w.WriteU32(4)
	w.WriteU32(e.IconID)

	w.WriteU16(entryFieldTitle)
	w.WriteU32(NulStringLen(e.Title))
	w.WriteNulString(e.Title)

	w.WriteU16(entryFieldURL)
	w.WriteU32(NulStringLen(e.URL))
	w.WriteNulString(e.URL)

	w.WriteU16(entryFieldUsername)
	w.WriteU32(NulStringLen(e.Username))
	w.WriteNulString(e.Username)

	w.WriteU16(entryFieldPassword)
	w.WriteU32(NulStringLen(e.Password))
	w.WriteNulString(e.Password)

	w.WriteU16(entryFieldNotes)
	w.WriteU32(NulStringLen(e.Notes))
	w.WriteNulString(e.Notes)

	w.WriteU16(entryFieldCreated)
	w.WriteU32(5)
	w.WriteTimestamp(e.Created)

	w.WriteU16(entryFieldLastMod)
	w.WriteU32(5)
	w.WriteTimestamp(e.LastMod)

	w.WriteU16(entryFieldLastAccess)
	w.WriteU32(5)
	w.WriteTimestamp(e.LastAccess)

	w.WriteU16(entryFieldExpires)
	w.WriteU32(5)
	w.WriteTimestamp(e.Expires)

	if e.Attachment != nil {
		w.WriteU16(entryFieldBinDesc)
		w.WriteU32(NulStringLen(e.Attachment.Name))
		w.WriteNulString(e.Attachment.Name)

		w.WriteU16(entryFieldBinData)
		w.WriteU32(uint32(len(e.Attachment.Data)))
		w.WriteBlob(e.Attachment.Data)
	}

	w.WriteU16(fieldEnd)
	w.WriteU32(0)
}
