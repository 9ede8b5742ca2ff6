package main

import (
	"bufio"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/kballard/go-shellquote"
	"github.com/yashagw/btrievedb/internal/btrieve"
	"github.com/yashagw/btrievedb/internal/cursor"
	"github.com/yashagw/btrievedb/internal/key"
)

const shellHelp = `commands:
  open <NAME.DAT>              open a file and make it current
  use <handle>                 switch to an open file
  close                        close the current file
  count                        number of records
  stat                         file and key specs
  keys                         key definitions
  first | next | prev | last   step in physical order
  get [position]               show the current or given record
  seek <key> <op> [value]      new key query, op is GetEqual, GetFirst, ...
                               (GetEqual+50 and the like return the key only)
  continue                     next row of the last key query
  insert <hex>                 insert a record
  update <position> <hex>      replace a record
  delete                       delete the current record
  deleteall                    delete every record
  help                         this text
  quit                         leave the shell
`

// Shell drives an open-file table from text commands.
type Shell struct {
	files   *btrieve.Files
	out     io.Writer
	current uuid.UUID
	names   map[uuid.UUID]string
}

// NewShell creates a new shell writing to out.
func NewShell(files *btrieve.Files, out io.Writer) *Shell {
	return &Shell{
		files: files,
		out:   out,
		names: make(map[uuid.UUID]string),
	}
}

// Run reads commands from in until quit or end of input.
func (s *Shell) Run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, s.prompt())
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		args, err := shellquote.Split(line)
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
			continue
		}
		quit, err := s.Execute(args)
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v (%s)\n", err, btrieve.StatusOfError(err))
		}
		if quit {
			fmt.Fprintln(s.out, "Goodbye!")
			return nil
		}
	}
	return scanner.Err()
}

func (s *Shell) prompt() string {
	if name, ok := s.names[s.current]; ok {
		return "btrievedb " + name + "> "
	}
	return "btrievedb> "
}

// Execute runs one tokenised command. quit reports whether the shell should exit.
func (s *Shell) Execute(args []string) (quit bool, err error) {
	cmd, args := strings.ToLower(args[0]), args[1:]
	switch cmd {
	case "quit", "exit":
		return true, nil
	case "help":
		fmt.Fprint(s.out, shellHelp)
		return false, nil
	case "open":
		return false, s.open(args)
	case "use":
		return false, s.use(args)
	}

	p, err := s.files.Get(s.current)
	if err != nil {
		return false, err
	}

	switch cmd {
	case "close":
		err = s.files.Close(s.current)
		delete(s.names, s.current)
		s.current = uuid.Nil
	case "count":
		var n int
		if n, err = p.GetRecordCount(); err == nil {
			fmt.Fprintf(s.out, "%d record(s)\n", n)
		}
	case "stat":
		err = s.stat(p)
	case "keys":
		s.keys(p)
	case "first":
		err = s.step(p, cursor.StepFirst, p.StepFirst)
	case "next":
		err = s.step(p, cursor.StepNext, p.StepNext)
	case "prev":
		err = s.step(p, cursor.StepPrevious, p.StepPrevious)
	case "last":
		err = s.step(p, cursor.StepLast, p.StepLast)
	case "get":
		err = s.get(p, args)
	case "seek":
		err = s.seek(p, args)
	case "continue":
		err = s.continueSeek(p)
	case "insert":
		err = s.insert(p, args)
	case "update":
		err = s.update(p, args)
	case "delete":
		var ok bool
		ok, err = p.Delete()
		s.status(cursor.Delete, ok, err)
	case "deleteall":
		var ok bool
		ok, err = p.DeleteAll()
		s.status(cursor.Delete, ok, err)
	default:
		err = fmt.Errorf("unknown command %q, try help", cmd)
	}
	return false, err
}

func (s *Shell) open(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: open <NAME.DAT>")
	}
	handle, _, err := s.files.Open(args[0])
	if err != nil {
		return err
	}
	s.current = handle
	s.names[handle] = args[0]
	fmt.Fprintf(s.out, "Opened %s as %s\n", args[0], handle)
	return nil
}

func (s *Shell) use(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: use <handle>")
	}
	handle, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("bad handle %q: %w", args[0], err)
	}
	if _, err := s.files.Get(handle); err != nil {
		return err
	}
	s.current = handle
	return nil
}

func (s *Shell) status(op cursor.Operation, ok bool, err error) {
	if err == nil {
		fmt.Fprintf(s.out, "%s: %s\n", op, btrieve.StatusOf(op, ok, err))
	}
}

func (s *Shell) printRecord(p *btrieve.Processor) error {
	r, err := p.GetRecord()
	if err != nil || r == nil {
		return err
	}
	fmt.Fprintf(s.out, "position %d\n%s", r.Position, hex.Dump(r.Data))
	return nil
}

func (s *Shell) step(p *btrieve.Processor, op cursor.Operation, fn func() (bool, error)) error {
	ok, err := fn()
	s.status(op, ok, err)
	if err != nil || !ok {
		return err
	}
	return s.printRecord(p)
}

func (s *Shell) get(p *btrieve.Processor, args []string) error {
	if len(args) == 0 {
		ok := p.Position() != 0
		if ok {
			return s.printRecord(p)
		}
		s.status(cursor.GetPosition, ok, nil)
		return nil
	}
	pos, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("bad position %q: %w", args[0], err)
	}
	r, err := p.GetRecordAt(uint32(pos))
	if err != nil {
		return err
	}
	if r == nil {
		s.status(cursor.GetDirect, false, nil)
		return nil
	}
	fmt.Fprintf(s.out, "position %d\n%s", r.Position, hex.Dump(r.Data))
	return nil
}

func (s *Shell) seek(p *btrieve.Processor, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return fmt.Errorf("usage: seek <key> <op> [value]")
	}
	keyNumber, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bad key number %q: %w", args[0], err)
	}
	op, ok := cursor.ParseOperation(args[1])
	if !ok {
		return fmt.Errorf("unknown operation %q: %w", args[1], cursor.ErrInvalidOperation)
	}

	var keyData []byte
	if len(args) == 3 {
		k, found := p.Keys()[uint16(keyNumber)]
		if !found || keyNumber < 0 {
			return fmt.Errorf("key %d: %w", keyNumber, btrieve.ErrInvalidKeyNumber)
		}
		if keyData, err = encodeKeyValue(k, args[2]); err != nil {
			return err
		}
	}

	ok, err = p.SeekByKey(keyNumber, keyData, op, true)
	s.status(op, ok, err)
	if err != nil || !ok {
		return err
	}
	if op.KeyOnly() {
		return s.printKey(p, keyNumber)
	}
	return s.printRecord(p)
}

// printKey shows the current record's value of one key, as a key-only
// operation returns it.
func (s *Shell) printKey(p *btrieve.Processor, keyNumber int) error {
	r, err := p.GetRecord()
	if err != nil || r == nil {
		return err
	}
	v, err := p.Keys()[uint16(keyNumber)].Project(r.Data)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "position %d key %d = %s\n", r.Position, keyNumber, v)
	return nil
}

func (s *Shell) continueSeek(p *btrieve.Processor) error {
	if p.LastUsedKey() < 0 {
		return fmt.Errorf("no key query to continue: %w", cursor.ErrInvalidOperation)
	}
	ok, err := p.SeekByKey(p.LastUsedKey(), nil, cursor.GetNext, false)
	s.status(cursor.GetNext, ok, err)
	if err != nil || !ok {
		return err
	}
	return s.printRecord(p)
}

func (s *Shell) insert(p *btrieve.Processor, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: insert <hex>")
	}
	data, err := hex.DecodeString(args[0])
	if err != nil {
		return fmt.Errorf("bad record: %w", err)
	}
	pos, err := p.Insert(data)
	s.status(cursor.Insert, pos != 0, err)
	if err == nil && pos != 0 {
		fmt.Fprintf(s.out, "position %d\n", pos)
	}
	return err
}

func (s *Shell) update(p *btrieve.Processor, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: update <position> <hex>")
	}
	pos, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("bad position %q: %w", args[0], err)
	}
	data, err := hex.DecodeString(args[1])
	if err != nil {
		return fmt.Errorf("bad record: %w", err)
	}
	status, err := p.UpdateStatus(uint32(pos), data)
	if err == nil {
		fmt.Fprintf(s.out, "%s: %s\n", cursor.Update, status)
	}
	return err
}

func (s *Shell) stat(p *btrieve.Processor) error {
	fs, specs, err := p.Stat()
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "record length %d, page size %d, %d key(s), %d record(s)\n",
		fs.RecordLength, fs.PageSize, fs.KeyCount, fs.RecordCount)

	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "key\tposition\tlength\ttype\tattributes\tunique values")
	for _, ks := range specs {
		fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\t%d\n", ks.Number, ks.Position, ks.Length, ks.DataType, ks.Attributes, ks.UniqueKeys)
	}
	return w.Flush()
}

func (s *Shell) keys(p *btrieve.Processor) {
	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "key\tsegment\toffset\tlength\ttype\tattributes\tcolumn\tsql\tflags")
	keys := p.Keys()
	schema := p.Schema()
	for _, number := range p.KeyNumbers() {
		k := keys[number]
		info, _ := schema.GetFieldInfo(k.ColumnName())
		var flags []string
		if info.Nullable() {
			flags = append(flags, "nullable")
		}
		if info.Unique() {
			flags = append(flags, "unique")
		}
		if k.IsModifiable() {
			flags = append(flags, "modifiable")
		}
		if k.IsAutoInc() {
			flags = append(flags, "autoinc")
		}
		for _, seg := range k.Segments {
			fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
				seg.Number, seg.SegmentIndex, seg.Offset, seg.Length, seg.DataType, seg.Attributes,
				k.ColumnName(), info.Type(), strings.Join(flags, ","))
		}
	}
	w.Flush()
}

// encodeKeyValue turns a typed value into key bytes. A 0x prefix passes raw
// bytes through for any key.
func encodeKeyValue(k *key.Key, value string) ([]byte, error) {
	if strings.HasPrefix(value, "0x") {
		data, err := hex.DecodeString(value[2:])
		if err != nil {
			return nil, fmt.Errorf("bad key value %q: %w", value, err)
		}
		return data, nil
	}

	primary := k.PrimarySegment()
	if k.IsComposite() || primary.DataType.IsString() {
		return []byte(value), nil
	}

	data := make([]byte, 8)
	if primary.DataType.IsSigned() {
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad key value %q: %w", value, err)
		}
		binary.LittleEndian.PutUint64(data, uint64(v))
	} else {
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad key value %q: %w", value, err)
		}
		binary.LittleEndian.PutUint64(data, v)
	}
	return data[:k.Length()], nil
}
