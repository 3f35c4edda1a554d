package pb

import "github.com/gogo/protobuf/proto"

// DataType enumerates data-node request kinds.
type DataType int32

const (
	DataType_SET DataType = iota
	DataType_GET
	DataType_DEL
	DataType_MGET
	DataType_INFOSTATS
	DataType_INFOPARTITION
	DataType_INFOCAPACITY
)

// DataStatusCode enumerates data-response outcomes.
type DataStatusCode int32

const (
	DataStatusCode_kOk DataStatusCode = iota
	DataStatusCode_kNotFound
	DataStatusCode_kError
)

// DataRequest is the single request envelope for every data RPC; only the
// fields matching Type are populated.
type DataRequest struct {
	Type  DataType `protobuf:"varint,1,opt,name=type" json:"type,omitempty"`
	Table string   `protobuf:"bytes,2,opt,name=table" json:"table,omitempty"`
	Key   string   `protobuf:"bytes,3,opt,name=key" json:"key,omitempty"`
	Value string   `protobuf:"bytes,4,opt,name=value" json:"value,omitempty"`
	TTL   int32    `protobuf:"varint,5,opt,name=ttl" json:"ttl,omitempty"`
	Keys  []string `protobuf:"bytes,6,rep,name=keys" json:"keys,omitempty"`
}

func (m *DataRequest) Reset()         { *m = DataRequest{} }
func (m *DataRequest) String() string { return proto.CompactTextString(m) }
func (m *DataRequest) ProtoMessage()  {}

// KV is one key/value pair in an Mget response.
type KV struct {
	Key   string `protobuf:"bytes,1,opt,name=key" json:"key,omitempty"`
	Value string `protobuf:"bytes,2,opt,name=value" json:"value,omitempty"`
}

func (m *KV) Reset()         { *m = KV{} }
func (m *KV) String() string { return proto.CompactTextString(m) }
func (m *KV) ProtoMessage()  {}

// BinlogOffset is a partition's replication offset, used by InfoOffset.
type BinlogOffset struct {
	Partition int32  `protobuf:"varint,1,opt,name=partition" json:"partition,omitempty"`
	FileNum   uint64 `protobuf:"varint,2,opt,name=file_num" json:"file_num,omitempty"`
	Offset    uint64 `protobuf:"varint,3,opt,name=offset" json:"offset,omitempty"`
}

func (m *BinlogOffset) Reset()         { *m = BinlogOffset{} }
func (m *BinlogOffset) String() string { return proto.CompactTextString(m) }
func (m *BinlogOffset) ProtoMessage()  {}

// InfoStatsEntry is one table's QPS counters, reported per node.
type InfoStatsEntry struct {
	TableName   string `protobuf:"bytes,1,opt,name=table_name" json:"table_name,omitempty"`
	QPS         int64  `protobuf:"varint,2,opt,name=qps" json:"qps,omitempty"`
	TotalQuerys int64  `protobuf:"varint,3,opt,name=total_querys" json:"total_querys,omitempty"`
}

func (m *InfoStatsEntry) Reset()         { *m = InfoStatsEntry{} }
func (m *InfoStatsEntry) String() string { return proto.CompactTextString(m) }
func (m *InfoStatsEntry) ProtoMessage()  {}

// InfoPartitionEntry is one table's per-partition replication offsets,
// reported per node.
type InfoPartitionEntry struct {
	TableName  string         `protobuf:"bytes,1,opt,name=table_name" json:"table_name,omitempty"`
	SyncOffset []BinlogOffset `protobuf:"bytes,2,rep,name=sync_offset" json:"sync_offset,omitempty"`
}

func (m *InfoPartitionEntry) Reset()         { *m = InfoPartitionEntry{} }
func (m *InfoPartitionEntry) String() string { return proto.CompactTextString(m) }
func (m *InfoPartitionEntry) ProtoMessage()  {}

// InfoCapacityEntry is one table's disk usage, reported per node.
type InfoCapacityEntry struct {
	TableName string `protobuf:"bytes,1,opt,name=table_name" json:"table_name,omitempty"`
	Used      uint64 `protobuf:"varint,2,opt,name=used" json:"used,omitempty"`
	Remain    uint64 `protobuf:"varint,3,opt,name=remain" json:"remain,omitempty"`
}

func (m *InfoCapacityEntry) Reset()         { *m = InfoCapacityEntry{} }
func (m *InfoCapacityEntry) String() string { return proto.CompactTextString(m) }
func (m *InfoCapacityEntry) ProtoMessage()  {}

// DataResponse is the single response envelope for every data RPC.
type DataResponse struct {
	Code          DataStatusCode       `protobuf:"varint,1,opt,name=code" json:"code,omitempty"`
	Msg           string               `protobuf:"bytes,2,opt,name=msg" json:"msg,omitempty"`
	GetValue      string               `protobuf:"bytes,3,opt,name=get_value" json:"get_value,omitempty"`
	Mget          []KV                 `protobuf:"bytes,4,rep,name=mget" json:"mget,omitempty"`
	InfoStats     []InfoStatsEntry     `protobuf:"bytes,5,rep,name=info_stats" json:"info_stats,omitempty"`
	InfoPartition []InfoPartitionEntry `protobuf:"bytes,6,rep,name=info_partition" json:"info_partition,omitempty"`
	InfoCapacity  []InfoCapacityEntry  `protobuf:"bytes,7,rep,name=info_capacity" json:"info_capacity,omitempty"`
}

func (m *DataResponse) Reset()         { *m = DataResponse{} }
func (m *DataResponse) String() string { return proto.CompactTextString(m) }
func (m *DataResponse) ProtoMessage()  {}

func init() {
	proto.RegisterType((*DataRequest)(nil), "zp.DataRequest")
	proto.RegisterType((*DataResponse)(nil), "zp.DataResponse")
}
