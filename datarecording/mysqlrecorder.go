package datarecording

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"reflect"
	"strconv"
	"strings"

	// Need to use MySQL connections.
	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// mysqlWriter records into a per-run database on a MySQL server.
type mysqlWriter struct {
	username  string
	password  string
	ipAddress string
	port      int
	dbName    string

	db        *sql.DB
	tables    map[string]*table
	batchSize int

	entryCount int
}

// NewMySQL creates a DataRecorder that writes to a MySQL server. The
// connection is configured with the WIFISIM_DB_USERNAME,
// WIFISIM_DB_PASSWORD, WIFISIM_DB_IP, and WIFISIM_DB_PORT environment
// variables. A fresh run-scoped database is created on connect.
func NewMySQL() DataRecorder {
	w := &mysqlWriter{
		tables:    make(map[string]*table),
		batchSize: 100000,
	}

	w.getCredentials()
	w.connect()
	w.createDatabase()

	atexit.Register(func() { w.Flush() })

	return w
}

func (t *mysqlWriter) getCredentials() {
	t.username = os.Getenv("WIFISIM_DB_USERNAME")
	if t.username == "" {
		panic(`database username is not set, ` +
			`use environment variable WIFISIM_DB_USERNAME to set it.`)
	}

	t.password = os.Getenv("WIFISIM_DB_PASSWORD")
	t.ipAddress = os.Getenv("WIFISIM_DB_IP")
	if t.ipAddress == "" {
		t.ipAddress = "127.0.0.1"
	}

	portString := os.Getenv("WIFISIM_DB_PORT")
	if portString == "" {
		portString = "3306"
	}
	port, err := strconv.Atoi(portString)
	if err != nil {
		panic(err)
	}
	t.port = port
}

func (t *mysqlWriter) connect() {
	connectStr := fmt.Sprintf("%s:%s@tcp(%s:%d)/",
		t.username, t.password, t.ipAddress, t.port)
	db, err := sql.Open("mysql", connectStr)
	if err != nil {
		panic(err)
	}

	t.db = db
}

func (t *mysqlWriter) createDatabase() {
	t.dbName = "wifisim_run_" + xid.New().String()
	log.Printf("Rounds are recorded in database: %s\n", t.dbName)

	t.mustExecute("CREATE DATABASE " + t.dbName)
	t.mustExecute("USE " + t.dbName)
}

func columnType(kind reflect.Kind) string {
	switch kind {
	case reflect.Bool:
		return "boolean"
	case reflect.Float32, reflect.Float64:
		return "double"
	case reflect.String:
		return "varchar(255)"
	default:
		return "bigint"
	}
}

func (t *mysqlWriter) CreateTable(tableName string, sampleEntry any) {
	err := checkStructFields(sampleEntry)
	if err != nil {
		panic(err)
	}

	structType := reflect.TypeOf(sampleEntry)

	columns := make([]string, 0, structType.NumField())
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		columns = append(columns,
			field.Name+" "+columnType(field.Type.Kind()))
	}

	createTableSQL := "CREATE TABLE " + tableName +
		" (\n\t" + strings.Join(columns, ",\n\t") + "\n);"
	t.mustExecute(createTableSQL)

	t.tables[tableName] = &table{
		structType: structType,
		entries:    []any{},
	}
}

func (t *mysqlWriter) InsertData(tableName string, entry any) {
	table, exists := t.tables[tableName]
	if !exists {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	table.entries = append(table.entries, entry)

	t.entryCount++
	if t.entryCount >= t.batchSize {
		t.Flush()
	}
}

func (t *mysqlWriter) ListTables() []string {
	tables := make([]string, 0, len(t.tables))
	for table := range t.tables {
		tables = append(tables, table)
	}

	return tables
}

func (t *mysqlWriter) Flush() {
	if t.entryCount == 0 {
		return
	}

	for tableName, table := range t.tables {
		if len(table.entries) == 0 {
			continue
		}

		t.flushTable(tableName, table)
	}

	t.entryCount = 0
}

func (t *mysqlWriter) flushTable(tableName string, table *table) {
	placeholders := "(" + strings.TrimSuffix(
		strings.Repeat("?, ", table.structType.NumField()), ", ") + "),"

	sqlStr := "INSERT INTO " + tableName + " VALUES "
	vals := []any{}

	for _, entry := range table.entries {
		sqlStr += placeholders

		values := reflect.ValueOf(entry)
		for i := 0; i < values.NumField(); i++ {
			vals = append(vals, values.Field(i).Interface())
		}
	}

	sqlStr = strings.TrimSuffix(sqlStr, ",")

	stmt, err := t.db.Prepare(sqlStr)
	if err != nil {
		panic(err)
	}

	_, err = stmt.Exec(vals...)
	if err != nil {
		panic(err)
	}

	err = stmt.Close()
	if err != nil {
		panic(err)
	}

	table.entries = nil
}

func (t *mysqlWriter) Close() error {
	t.Flush()
	return t.db.Close()
}

func (t *mysqlWriter) mustExecute(query string) sql.Result {
	res, err := t.db.Exec(query)
	if err != nil {
		panic(err)
	}

	return res
}
