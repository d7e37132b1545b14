// Package console реализует интерактивное меню route-svc поверх RouteService.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"routefinder/pkg/apperror"
	"routefinder/pkg/domain"
	"routefinder/pkg/logger"
	"routefinder/services/route-svc/internal/matrixio"
	"routefinder/services/route-svc/internal/service"
)

// Menu текст главного меню
const Menu = "1) variant task\n" +
	"2) read matrix from file\n" +
	"3) print matrix\n" +
	"4) write matrix to file\n" +
	"5) export routes report\n" +
	"0) exit\n"

const (
	selectPrompt   = "Select item >"
	continuePrompt = "Press Enter for continue..."
)

// errInputClosed ввод закончился посреди диалога
var errInputClosed = errors.New("input closed")

// Config параметры сессии
type Config struct {
	// InputPath файл, который перечитывается в пункте 1
	InputPath string
	// OutputPath файл по умолчанию для пунктов 4 и 5
	OutputPath string
	// ExportFormat формат отчёта, если расширение файла ничего не говорит
	ExportFormat matrixio.Format
}

// Session владеет текущей матрицей и результатом последнего запроса.
// Глобального состояния нет: каждый запрос получает свою матрицу.
type Session struct {
	cfg    Config
	svc    *service.RouteService
	errLog *logger.ErrorLog
	in     *bufio.Scanner
	out    io.Writer

	// строки ввода читает отдельная горутина, чтобы отмена ctx
	// прерывала ожидание ввода
	lines <-chan string
	done  <-chan struct{}

	matrix *domain.Matrix
	query  service.Query
	report *service.Report
}

// NewSession создаёт сессию. errLog может быть nil.
func NewSession(cfg Config, svc *service.RouteService, errLog *logger.ErrorLog, in io.Reader, out io.Writer) *Session {
	if cfg.ExportFormat == "" {
		cfg.ExportFormat = matrixio.FormatText
	}
	return &Session{
		cfg:    cfg,
		svc:    svc,
		errLog: errLog,
		in:     bufio.NewScanner(in),
		out:    out,
	}
}

// Matrix возвращает текущую матрицу
func (s *Session) Matrix() *domain.Matrix {
	return s.matrix
}

// Run крутит меню до пункта 0, конца ввода или отмены контекста.
// Отмена прерывает и ожидание ввода: Run сразу возвращает ctx.Err(), а
// горутина чтения завершится после следующей строки или конца ввода.
func (s *Session) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.done = ctx.Done()
	s.lines = s.readLines()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(s.out, Menu+selectPrompt)
		key, ok := s.readKey()
		if !ok {
			return ctx.Err()
		}
		if key == '0' {
			return nil
		}

		if err := s.dispatch(ctx, key); err != nil {
			if errors.Is(err, errInputClosed) {
				return ctx.Err()
			}
			s.fail(err)
		}
	}
}

// readLines единственный читатель сканера; канал закрывается в конце ввода
func (s *Session) readLines() <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for s.in.Scan() {
			select {
			case lines <- s.in.Text():
			case <-s.done:
				return
			}
		}
	}()
	return lines
}

// readKey читает строки до первой известной клавиши меню
func (s *Session) readKey() (byte, bool) {
	for {
		line, ok := s.readLine()
		if !ok {
			return 0, false
		}
		if len(line) == 1 && strings.IndexByte("012345", line[0]) >= 0 {
			return line[0], true
		}
		fmt.Fprint(s.out, selectPrompt)
	}
}

func (s *Session) dispatch(ctx context.Context, key byte) error {
	switch key {
	case '1':
		return s.variantTask(ctx)
	case '2':
		return s.readMatrix(ctx)
	case '3':
		return s.printMatrix()
	case '4':
		return s.writeMatrix(ctx)
	case '5':
		return s.export(ctx)
	}
	return nil
}

// variantTask перечитывает входной файл и печатает маршруты из вершины пользователя
func (s *Session) variantTask(ctx context.Context) error {
	m, err := s.svc.ReadMatrix(ctx, s.cfg.InputPath)
	if err != nil {
		return err
	}
	n := m.Size()

	fmt.Fprintf(s.out, "Enter first vertex (from 1 to %d): ", n)
	source, err := s.readInt("first vertex")
	if err != nil {
		return err
	}
	if source < 1 || source > int64(n) {
		return apperror.OutOfRangeVertex(int(source), 1, n)
	}

	fmt.Fprint(s.out, "Enter maximal route length: ")
	maxLength, err := s.readInt("maximal route length")
	if err != nil {
		return err
	}

	q := service.Query{Matrix: m, Source: int(source) - 1, MaxRouteLength: maxLength}
	report, err := s.svc.FindRoutes(ctx, q)
	if err != nil {
		return err
	}

	fmt.Fprint(s.out, matrixio.FormatRoutes(report.Routes))
	s.matrix = m
	s.query = q
	s.report = report
	return s.pause()
}

func (s *Session) readMatrix(ctx context.Context) error {
	fmt.Fprint(s.out, "Enter filename with matrix: ")
	path, err := s.readPath("")
	if err != nil {
		return err
	}

	m, err := s.svc.ReadMatrix(ctx, path)
	if err != nil {
		return err
	}
	s.matrix = m
	return nil
}

func (s *Session) printMatrix() error {
	grid := ""
	if s.matrix != nil {
		grid = matrixio.FormatMatrix(s.matrix)
	}
	fmt.Fprint(s.out, "Matrix:\n"+grid+"\n")
	return s.pause()
}

func (s *Session) writeMatrix(ctx context.Context) error {
	fmt.Fprint(s.out, "Enter filename for matrix writing: ")
	path, err := s.readPath(s.cfg.OutputPath)
	if err != nil {
		return err
	}
	return s.svc.WriteMatrix(ctx, path, s.matrix)
}

func (s *Session) export(ctx context.Context) error {
	fmt.Fprint(s.out, "Enter filename for report (.txt, .xlsx, .pdf): ")
	path, err := s.readPath(s.cfg.OutputPath)
	if err != nil {
		return err
	}
	if err := s.svc.Export(ctx, path, s.cfg.ExportFormat, s.query, s.report); err != nil {
		return err
	}

	fmt.Fprintf(s.out, "Report written to %s\n", path)
	return s.pause()
}

// fail печатает ошибку, пишет её в журнал и ждёт подтверждения
func (s *Session) fail(err error) {
	if s.errLog != nil {
		s.errLog.WriteError(err)
	}
	fmt.Fprintln(s.out, message(err))
	_ = s.pause()
}

func (s *Session) pause() error {
	fmt.Fprint(s.out, continuePrompt)
	if _, ok := s.readLine(); !ok {
		return errInputClosed
	}
	fmt.Fprintln(s.out)
	return nil
}

func (s *Session) readLine() (string, bool) {
	select {
	case line, ok := <-s.lines:
		if !ok {
			return "", false
		}
		return strings.TrimSpace(line), true
	case <-s.done:
		return "", false
	}
}

func (s *Session) readInt(field string) (int64, error) {
	line, ok := s.readLine()
	if !ok {
		return 0, errInputClosed
	}
	v, err := strconv.ParseInt(line, 10, 64)
	if err != nil {
		return 0, apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("%s must be an integer, got %q", field, line), field)
	}
	return v, nil
}

// readPath читает имя файла; пустая строка даёт def
func (s *Session) readPath(def string) (string, error) {
	line, ok := s.readLine()
	if !ok {
		return "", errInputClosed
	}
	if line == "" {
		line = def
	}
	if line == "" {
		return "", apperror.NewWithField(apperror.CodeInvalidArgument, "file name is empty", "path")
	}
	return line, nil
}

// message текст ошибки без кода, как его видит пользователь
func message(err error) string {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
