/*
Package cftable contains the column-block storage core of a columnar
table-file format: runs of uint32 values are packed into group-varint
encoded leaf blocks, and a multi-level sorted index maps each block's
first row key to its physical location. Row keys are implicit append
ordinals; the index is bulk-loaded bottom-up in the single increasing
key pass of a write, so no node insertion or rebalancing ever happens.

Data Structure Documentation

Store

A store contains a header, a series of leaf and index blocks in flush
order, a metadata record and a store footer.

    Store layout:
    +------------------+---------+---------+---------+----------+--------------+
    | header (8 bytes) | block 1 |   ...   | block n | metadata | store footer |
    +------------------+---------+---------+---------+----------+--------------+

    Metadata record:
    +-----------------------+------------+-----------------------+-----------------------+------------------+------------------+
    | identifier len (uvar) | identifier | root offset (uvarint) | root length (uvarint) | levels (uvarint) | values (uvarint) |
    +-----------------------+------------+-----------------------+-----------------------+------------------+------------------+

    Store footer:
    +---------------------------+------------------+
    | metadata length (4 bytes) |  magic (8 bytes) |
    +---------------------------+------------------+

Leaf block

A leaf block is a series of group-varint groups. The leading header
group carries the value count; the trailing partial group, if any, is
zero-padded and the padding is never surfaced on decode. An empty
block is the 5-byte all-zero header group.

    Leaf block layout:
    +-------------------------------+---------+-----+---------+
    | header group (count, 0, 0, 0) | group 1 | ... | group m |
    +-------------------------------+---------+-----+---------+

    Group (1 control byte + 4-16 value bytes):
    +--------------+------------------+-----+------------------+
    | control byte | value 1 (1-4 LE) | ... | value 4 (1-4 LE) |
    +--------------+------------------+-----+------------------+

The control byte holds four 2-bit fields, highest bits first, each
recording (length-1) of the corresponding value.

Index block

An index block is an entry count followed by strictly increasing
(key, block pointer) entries. Level-0 entries key each leaf block by
its first row; higher levels key each index block the same way,
giving a tree whose depth is purely a function of entry count and
block budget.

    Index block layout:
    +-----------------+---------------+------------------+------------------+-------+
    | count (uvarint) | key (uvarint) | offset (uvarint) | length (uvarint) |  ...  |
    +-----------------+---------------+------------------+------------------+-------+
*/
package cftable
